package local

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, opts ...Option) *FS {
	t.Helper()
	f, err := New(opts...)
	require.NoError(t, err)
	return f
}

func TestFS_ReadFile(t *testing.T) {
	dir := t.TempDir()
	f := newFS(t)

	content := bytes.Repeat([]byte("filecrypt "), 10000)
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := f.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	got, err = f.ReadFile(empty)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFS_ReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := newFS(t).ReadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = newFS(t).ReadFile(dir)
	assert.Error(t, err)

	big := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, 10*1024), 0o644))
	_, err = newFS(t, WithMaxFileSize(1024)).ReadFile(big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFS_WriteFileExclusive(t *testing.T) {
	dir := t.TempDir()
	f := newFS(t, WithPerm(0o600))
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, f.WriteFileExclusive(path, []byte("first")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), info.Mode().Perm())

	err = f.WriteFileExclusive(path, []byte("second"))
	assert.True(t, errors.Is(err, fs.ErrExist), "got %v", err)

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got), "existing file must not be replaced")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestFS_WriteFileExclusiveMissingDir(t *testing.T) {
	f := newFS(t)
	err := f.WriteFileExclusive(filepath.Join(t.TempDir(), "nope", "out.txt"), []byte("x"))
	assert.Error(t, err)
}

func TestFS_ExistsAndList(t *testing.T) {
	dir := t.TempDir()
	f := newFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	ok, err := f.Exists(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(filepath.Join(dir, "zzz"))
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := f.ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, files)

	_, err = f.ListFiles(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNew_InvalidChunkSize(t *testing.T) {
	_, err := New(WithChunkSize(1))
	assert.Error(t, err)
}
