// Package testhelpers provides common utilities for tests across packages.
package testhelpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Files maps slash separated paths, relative to a tree root, to file contents.
type Files map[string]string

// Tree creates a temporary directory holding files.
// Returns the temp dir path.
// The temp dir is automatically cleaned up when the test completes.
func Tree(t *testing.T, files Files) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// WriteFiles writes files below root, creating parent directories as needed.
func WriteFiles(t *testing.T, root string, files Files) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// TestFile returns the source of a _test.go file in package pkg declaring the named tests.
func TestFile(pkg string, tests ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport \"testing\"\n", pkg)
	for _, name := range tests {
		fmt.Fprintf(&b, "\nfunc %s(t *testing.T) {\n\tt.Log(%q)\n}\n", name, name)
	}
	return b.String()
}

// GoModule creates a temporary Go module named mod holding files, with a go.mod at the root.
// Returns the module root.
func GoModule(t *testing.T, mod string, files Files) string {
	t.Helper()
	all := Files{"go.mod": fmt.Sprintf("module %s\n\ngo 1.24\n", mod)}
	for k, v := range files {
		all[k] = v
	}
	return Tree(t, all)
}
