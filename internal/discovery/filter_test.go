package discovery

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Skip(t *testing.T) {
	f, err := NewFilter(false, []string{"**/testdata", "tmp/**"})
	require.NoError(t, err)
	f.AddPatterns([]gitignore.Pattern{
		gitignore.ParsePattern("*.gen.go", nil),
		gitignore.ParsePattern("build/", []string{"sub"}),
	})

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"", true, false},
		{".", true, false},
		{"pkg/a_test.go", false, false},
		{".git", true, true},
		{".cache", true, true},
		{"pkg/.secret_test.go", false, true},
		{"pkg/testdata", true, true},
		{"tmp/x/y_test.go", false, true},
		{"pkg/z.gen.go", false, true},
		{"sub/build", true, true},
		{"build", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Skip(tt.rel, tt.isDir))
		})
	}
}

func TestFilter_IncludeHiddenStillSkipsGitDir(t *testing.T) {
	f, err := NewFilter(true, nil)
	require.NoError(t, err)

	assert.False(t, f.Skip(".config", true))
	assert.True(t, f.Skip(".git", true))
	assert.True(t, f.Skip("sub/.git", true))
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, splitPath(""))
	assert.Nil(t, splitPath("."))
	assert.Equal(t, []string{"a", "b"}, splitPath("a/b"))
	assert.Equal(t, []string{"a", "b"}, splitPath("/a/b/"))
}
