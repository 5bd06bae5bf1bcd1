package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestDiscover_EmptyArgs(t *testing.T) {
	files, err := Discover(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_ExplicitFilesKept(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "a.png"))
	txt := touch(t, filepath.Join(dir, "notes.txt"))

	files, err := Discover([]string{png, txt}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{png, txt}, files)
}

func TestDiscover_DirectoryFiltersTypes(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "image.png"))
	pdf := touch(t, filepath.Join(dir, "book.pdf"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "nested.jpg"))

	files, err := Discover([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{pdf, png}, files)
}

func TestDiscover_Recursive(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "image.png"))
	nested := touch(t, filepath.Join(dir, "sub", "nested.jpg"))

	files, err := Discover([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{png, nested}, files)
}

func TestDiscover_Patterns(t *testing.T) {
	dir := t.TempDir()
	keep := touch(t, filepath.Join(dir, "page_01.png"))
	touch(t, filepath.Join(dir, "page_02_draft.png"))
	touch(t, filepath.Join(dir, "cover.jpg"))

	files, err := Discover([]string{dir}, false, []string{"page_*"}, []string{"*_draft*"})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestDiscover_MissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}
