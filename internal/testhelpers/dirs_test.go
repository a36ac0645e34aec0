package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTree_WritesNestedFiles(t *testing.T) {
	root := Tree(t, Files{
		"a.txt":         "alpha",
		"deep/er/b.txt": "beta",
	})

	data, err := os.ReadFile(filepath.Join(root, "deep", "er", "b.txt"))
	if err != nil {
		t.Fatalf("expected nested file: %v", err)
	}
	if string(data) != "beta" {
		t.Errorf("content = %q; want %q", data, "beta")
	}
}

func TestTestFile_DeclaresTests(t *testing.T) {
	src := TestFile("pkg", "TestOne", "TestTwo")

	if !strings.HasPrefix(src, "package pkg\n") {
		t.Errorf("unexpected package clause:\n%s", src)
	}
	for _, want := range []string{"func TestOne(t *testing.T) {", "func TestTwo(t *testing.T) {"} {
		if !strings.Contains(src, want) {
			t.Errorf("source missing %q:\n%s", want, src)
		}
	}
}

func TestGoModule_WritesGoMod(t *testing.T) {
	root := GoModule(t, "example.com/m", Files{"x_test.go": TestFile("m", "TestX")})

	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("expected go.mod: %v", err)
	}
	if !strings.HasPrefix(string(data), "module example.com/m\n") {
		t.Errorf("go.mod = %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "x_test.go")); err != nil {
		t.Errorf("expected test file: %v", err)
	}
}
