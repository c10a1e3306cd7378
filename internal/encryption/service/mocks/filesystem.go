package mocks

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// MockFileSystem keeps files in memory. Each method can be overridden through
// its Func field.
type MockFileSystem struct {
	mu    sync.Mutex
	Files map[string][]byte

	ReadFileFunc           func(path string) ([]byte, error)
	WriteFileExclusiveFunc func(path string, data []byte) error
	ExistsFunc             func(path string) (bool, error)
	ListFilesFunc          func(dir string) ([]string, error)
}

func NewMockFileSystem() *MockFileSystem {
	m := &MockFileSystem{Files: map[string][]byte{}}
	m.ReadFileFunc = m.readFile
	m.WriteFileExclusiveFunc = m.writeFileExclusive
	m.ExistsFunc = m.exists
	m.ListFilesFunc = m.listFiles
	return m
}

// Put stores a file directly, bypassing the exclusive-write check.
func (m *MockFileSystem) Put(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[p] = append([]byte(nil), data...)
}

// Get returns a stored file.
func (m *MockFileSystem) Get(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Files[p]
	return data, ok
}

func (m *MockFileSystem) ReadFile(p string) ([]byte, error) {
	return m.ReadFileFunc(p)
}

func (m *MockFileSystem) WriteFileExclusive(p string, data []byte) error {
	return m.WriteFileExclusiveFunc(p, data)
}

func (m *MockFileSystem) Exists(p string) (bool, error) {
	return m.ExistsFunc(p)
}

func (m *MockFileSystem) ListFiles(dir string) ([]string, error) {
	return m.ListFilesFunc(dir)
}

func (m *MockFileSystem) readFile(p string) ([]byte, error) {
	data, ok := m.Get(p)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MockFileSystem) writeFileExclusive(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Files[p]; ok {
		return &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
	}
	m.Files[p] = append([]byte(nil), data...)
	return nil
}

func (m *MockFileSystem) exists(p string) (bool, error) {
	_, ok := m.Get(p)
	return ok, nil
}

func (m *MockFileSystem) listFiles(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var files []string
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range m.Files {
		if strings.HasPrefix(p, prefix) && path.Dir(p) == strings.TrimSuffix(prefix, "/") {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, nil
}
