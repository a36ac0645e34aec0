// Package discovery finds Go test functions in a source tree.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/maruel/natural"
	"github.com/rs/zerolog"

	"github.com/flashingpumpkin/testpilot/internal/logging"
)

// TestDiscoverer scans a directory tree for test declarations.
type TestDiscoverer interface {
	// Scan returns every test file under root that declares at least one
	// test. Scanning the same unchanged tree returns the same result.
	Scan(ctx context.Context, root string) ([]TestGroup, error)
}

// testFuncPattern matches a top-level `func TestXxx(t *testing.T)` declaration.
var testFuncPattern = regexp.MustCompile(`(?m)^func\s+(Test\w*)\s*\(\s*\w+\s+\*testing\.T\s*\)`)

// Options configures a GoDiscoverer.
type Options struct {
	// IncludeHidden scans dot-files and dot-directories.
	IncludeHidden bool

	// Exclude holds doublestar patterns, relative to the root, to skip.
	Exclude []string

	// Filesystem opens the tree rooted at root. Defaults to the OS filesystem.
	Filesystem func(root string) billy.Filesystem
}

// GoDiscoverer finds `func TestXxx(t *testing.T)` declarations in *_test.go
// files. It honours .gitignore files and skips hidden entries by default.
type GoDiscoverer struct {
	opts   Options
	logger zerolog.Logger
}

var _ TestDiscoverer = (*GoDiscoverer)(nil)

// NewGoDiscoverer creates a GoDiscoverer, validating the exclude patterns.
func NewGoDiscoverer(opts Options) (*GoDiscoverer, error) {
	if _, err := NewFilter(opts.IncludeHidden, opts.Exclude); err != nil {
		return nil, err
	}
	if opts.Filesystem == nil {
		opts.Filesystem = func(root string) billy.Filesystem { return osfs.New(root) }
	}
	return &GoDiscoverer{
		opts:   opts,
		logger: logging.Component("discovery"),
	}, nil
}

// Scan walks root and returns the test files it contains, sorted in natural
// path order. Files that cannot be read are logged and skipped; an error is
// returned only when root itself cannot be walked or ctx is cancelled.
func (d *GoDiscoverer) Scan(ctx context.Context, root string) ([]TestGroup, error) {
	fsys := d.opts.Filesystem(root)

	filter, err := NewFilter(d.opts.IncludeHidden, d.opts.Exclude)
	if err != nil {
		return nil, err
	}
	if err := filter.LoadInfoExclude(fsys); err != nil {
		d.logger.Warn().Err(err).Msg("ignoring unreadable exclude file")
	}

	var groups []TestGroup
	walkErr := util.Walk(fsys, "/", func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := strings.TrimPrefix(filepath.ToSlash(path), "/")
		if err != nil {
			if rel == "" {
				return err
			}
			d.logger.Warn().Err(err).Str("path", rel).Msg("skipping unreadable path")
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if filter.Skip(rel, true) {
				return filepath.SkipDir
			}
			if err := filter.LoadGitignore(fsys, rel); err != nil {
				d.logger.Warn().Err(err).Str("dir", rel).Msg("ignoring unreadable .gitignore")
			}
			return nil
		}

		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), "_test.go") {
			return nil
		}
		if filter.Skip(rel, false) {
			return nil
		}

		src, err := util.ReadFile(fsys, path)
		if err != nil {
			d.logger.Warn().Err(err).Str("path", rel).Msg("skipping unreadable test file")
			return nil
		}

		if tests := ParseTests(src); len(tests) > 0 {
			groups = append(groups, TestGroup{
				Path:  filepath.Join(root, filepath.FromSlash(rel)),
				Tests: tests,
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, walkErr)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return natural.Less(groups[i].Path, groups[j].Path)
	})

	d.logger.Debug().Str("root", root).Int("files", len(groups)).Msg("scan complete")
	return groups, nil
}

// ParseTests returns the names of the test functions declared in src, in
// declaration order.
func ParseTests(src []byte) []string {
	var tests []string
	for _, m := range testFuncPattern.FindAllSubmatch(src, -1) {
		name := string(m[1])
		if IsTestName(name) {
			tests = append(tests, name)
		}
	}
	return tests
}

// IsTestName reports whether name is a valid go test function name: "Test"
// alone or followed by a character that is not a lower-case letter.
func IsTestName(name string) bool {
	if !strings.HasPrefix(name, "Test") {
		return false
	}
	if len(name) == len("Test") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len("Test"):])
	return !unicode.IsLower(r)
}
