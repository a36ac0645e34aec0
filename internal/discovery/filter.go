package discovery

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	gitDir          = ".git"
	gitignoreFile   = ".gitignore"
	infoExcludeFile = ".git/info/exclude"
)

// Filter decides which paths below a root are skipped. Paths are slash
// separated and relative to the root.
//
// A Filter is not safe for concurrent use.
type Filter struct {
	includeHidden bool
	exclude       []string
	patterns      []gitignore.Pattern
	matcher       gitignore.Matcher
}

// NewFilter creates a Filter. Hidden entries are skipped unless includeHidden
// is set; exclude holds doublestar patterns.
func NewFilter(includeHidden bool, exclude []string) (*Filter, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Filter{
		includeHidden: includeHidden,
		exclude:       append([]string(nil), exclude...),
		matcher:       gitignore.NewMatcher(nil),
	}, nil
}

// AddPatterns adds gitignore patterns. Later patterns take priority.
func (f *Filter) AddPatterns(ps []gitignore.Pattern) {
	if len(ps) == 0 {
		return
	}
	f.patterns = append(f.patterns, ps...)
	f.matcher = gitignore.NewMatcher(f.patterns)
}

// LoadGitignore reads the .gitignore in dir, if there is one, and adds its
// patterns scoped to dir.
func (f *Filter) LoadGitignore(fsys billy.Filesystem, dir string) error {
	return f.loadFile(fsys, dir, path.Join(dir, gitignoreFile))
}

// LoadInfoExclude reads .git/info/exclude at the root, if there is one.
func (f *Filter) LoadInfoExclude(fsys billy.Filesystem) error {
	return f.loadFile(fsys, "", infoExcludeFile)
}

func (f *Filter) loadFile(fsys billy.Filesystem, dir, name string) error {
	data, err := util.ReadFile(fsys, "/"+name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}

	domain := splitPath(dir)
	var ps []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	f.AddPatterns(ps)
	return nil
}

// Skip reports whether rel should be skipped. The root itself ("" or ".") is never skipped.
func (f *Filter) Skip(rel string, isDir bool) bool {
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}

	name := parts[len(parts)-1]
	if name == gitDir {
		return true
	}
	if !f.includeHidden && strings.HasPrefix(name, ".") {
		return true
	}

	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}

	return f.matcher.Match(parts, isDir)
}

// splitPath splits a slash separated relative path into its elements.
func splitPath(rel string) []string {
	rel = strings.Trim(path.Clean("/"+rel), "/")
	if rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}
