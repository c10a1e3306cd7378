// filecrypt/internal/storage/local/fs.go
package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/chunking"
)

const (
	DefaultMaxFileSize = 1 << 30 // 1 GiB
	DefaultPerm        = 0o644
)

var ErrTooLarge = domain.ErrFileTooLarge

// FS reads whole files into memory and writes new files without ever
// replacing an existing one.
type FS struct {
	maxFileSize int64
	chunkSize   int
	perm        fs.FileMode
}

// Option configures an FS.
type Option func(*FS)

func WithMaxFileSize(n int64) Option {
	return func(f *FS) { f.maxFileSize = n }
}

func WithChunkSize(n int) Option {
	return func(f *FS) { f.chunkSize = n }
}

func WithPerm(perm fs.FileMode) Option {
	return func(f *FS) { f.perm = perm }
}

func New(opts ...Option) (*FS, error) {
	f := &FS{
		maxFileSize: DefaultMaxFileSize,
		chunkSize:   chunking.DefaultChunkSize,
		perm:        DefaultPerm,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := chunking.ValidateChunkSize(f.chunkSize); err != nil {
		return nil, err
	}
	return f, nil
}

// ReadFile returns the full contents of path. Errors from opening the file
// are returned unwrapped as *fs.PathError so callers can test for
// fs.ErrNotExist and fs.ErrPermission.
func (f *FS) ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	if f.maxFileSize > 0 && info.Size() > f.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), f.maxFileSize)
	}

	reader, err := chunking.NewChunkReader(file, f.chunkSize)
	if err != nil {
		return nil, err
	}
	data, err := reader.ReadAll(f.maxFileSize, info.Size())
	if errors.Is(err, chunking.ErrLimitExceeded) {
		return nil, fmt.Errorf("%w: %s grew past %d bytes", ErrTooLarge, path, f.maxFileSize)
	}
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// WriteFileExclusive writes data to a temporary file next to path, syncs it,
// then hard-links it into place. The link fails if path exists, so an
// existing file is never replaced and a partial file never appears at path.
func (f *FS) WriteFileExclusive(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &fs.PathError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Chmod(f.perm); err != nil {
		tmp.Close()
		return &fs.PathError{Op: "chmod", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &fs.PathError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &fs.PathError{Op: "close", Path: path, Err: err}
	}

	err = os.Link(tmpName, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return &fs.PathError{Op: "create", Path: path, Err: fs.ErrExist}
	}
	// Some filesystems have no hard links.
	return f.writeExclusiveDirect(path, data)
}

func (f *FS) writeExclusiveDirect(path string, data []byte) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.perm)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(path)
		return &fs.PathError{Op: "write", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return &fs.PathError{Op: "close", Path: path, Err: err}
	}
	return nil
}

func (f *FS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func (f *FS) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
