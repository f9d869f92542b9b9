package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "", ""},
		{"only separators", "///", ""},
		{"single segment", "a", "a/"},
		{"trailing separator kept", "a/b/", "a/b/"},
		{"leading separator dropped", "/a/b", "a/b/"},
		{"empty segments dropped", "a//b///c", "a/b/c/"},
		{"consecutive duplicates collapsed", "a/a/b", "a/b/"},
		{"long duplicate run", "a/a/a/a/", "a/"},
		{"non consecutive duplicates kept", "a/b/a/", "a/b/a/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "/", "a", "a/a", "x//y/z", "photos/2024/2024/jan/", "a/b/a/b"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestParent(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"", ""},
		{"a/", ""},
		{"a/b/", "a/"},
		{"a/b/c/", "a/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parent(tt.path))
		})
	}
}

func TestParent_OfJoinReconstructsPath(t *testing.T) {
	for _, p := range []string{"a/", "a/b/", "docs/reports/2024/"} {
		assert.Equal(t, p, Normalize(Parent(Join(p, "x/"))), "path %q", p)
	}
}

func TestJoin_DoesNotDuplicateLastSegment(t *testing.T) {
	assert.Equal(t, "a/", Join("a/", "a"))
	assert.Equal(t, "a/", Join("a/", "a/"))
	assert.Equal(t, "a/b/", Join("a/", "b/"))
	assert.Equal(t, "b/", Join("", "b/"))
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "y.txt", Relative("x/y.txt", "x/"))
	assert.Equal(t, "z/w.txt", Relative("x/z/w.txt", "x/"))
	assert.Equal(t, "", Relative("x/", "x/"))
	assert.Equal(t, "f.txt", Relative("f.txt", ""))
	// mismatched prefix is tolerated
	assert.Equal(t, "other/f.txt", Relative("other/f.txt", "x/"))
}

func TestBase(t *testing.T) {
	assert.Equal(t, "f.txt", Base("a/b/f.txt"))
	assert.Equal(t, "b/", Base("a/b/"))
	assert.Equal(t, "f.txt", Base("f.txt"))
	assert.Equal(t, "", Base(""))
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "docs/", FolderName("docs"))
	assert.Equal(t, "docs/", FolderName("docs/"))
	assert.Equal(t, "", FolderName(""))
	assert.True(t, IsFolder("docs/"))
	assert.False(t, IsFolder("docs"))
	assert.Equal(t, "/a/b/", Display("a/b/"))
	assert.Equal(t, "/", Display(""))
}
