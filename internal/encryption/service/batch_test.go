package service

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/service/mocks"
)

func TestEncryptionService_EncryptFolder(t *testing.T) {
	m := mocks.NewMockFileSystem()
	m.Put("/batch/a.txt", []byte("alpha"))
	m.Put("/batch/b.txt", []byte("bravo"))
	m.Put("/batch/c.txt", []byte("charlie"))
	m.Put("/batch/old.txt"+domain.EncryptedSuffix, make([]byte, 48))
	m.Put("/batch/sub/d.txt", []byte("nested"))

	read := m.ReadFileFunc
	m.ReadFileFunc = func(path string) ([]byte, error) {
		if path == "/batch/b.txt" {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
		}
		return read(path)
	}

	svc := NewService(m)
	result, err := svc.EncryptFolder(context.Background(), "/batch", "pw")
	if err != nil {
		t.Fatalf("EncryptFolder() error = %v", err)
	}

	if result.Total != 3 || result.Succeeded != 2 || result.Failed() != 1 {
		t.Errorf("EncryptFolder() = %d/%d succeeded, %d failed; want 2/3, 1 failed", result.Succeeded, result.Total, result.Failed())
	}
	if result.Failures[0].Path != "/batch/b.txt" || !IsKind(result.Failures[0].Err, KindNotReadable) {
		t.Errorf("unexpected failure record: %+v", result.Failures[0])
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "/batch/old.txt"+domain.EncryptedSuffix {
		t.Errorf("Skipped = %v", result.Skipped)
	}
	for _, p := range []string{"/batch/a.txt", "/batch/c.txt"} {
		if _, ok := m.Get(p + domain.EncryptedSuffix); !ok {
			t.Errorf("missing output for %s", p)
		}
	}
	if _, ok := m.Get("/batch/sub/d.txt" + domain.EncryptedSuffix); ok {
		t.Error("EncryptFolder() recursed into a subdirectory")
	}
}

func TestEncryptionService_EncryptFolder_MissingDir(t *testing.T) {
	m := mocks.NewMockFileSystem()
	m.ListFilesFunc = func(dir string) ([]string, error) {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrNotExist}
	}

	_, err := NewService(m).EncryptFolder(context.Background(), "/nope", "pw")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("EncryptFolder() error = %v, want KindNotFound", err)
	}
}

func TestEncryptionService_EncryptFolder_Canceled(t *testing.T) {
	m := mocks.NewMockFileSystem()
	m.Put("/batch/a.txt", []byte("alpha"))
	m.Put("/batch/b.txt", []byte("bravo"))

	ctx, cancel := context.WithCancel(context.Background())
	read := m.ReadFileFunc
	m.ReadFileFunc = func(path string) ([]byte, error) {
		cancel()
		return read(path)
	}

	result, err := NewService(m).EncryptFolder(ctx, "/batch", "pw")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("EncryptFolder() error = %v, want context.Canceled", err)
	}
	if result == nil || result.Succeeded != 1 || result.Total != 2 {
		t.Errorf("partial result = %+v, want 1 of 2 done", result)
	}
	if _, ok := m.Get("/batch/b.txt" + domain.EncryptedSuffix); ok {
		t.Error("file processed after cancellation")
	}
}

func TestEncryptionService_FolderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"a.txt":   []byte("alpha"),
		"b.bin":   bytes.Repeat([]byte{0xFE}, 4096),
		"empty":   {},
		".hidden": []byte("dotfile"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	svc := newLocalService(t)
	enc, err := svc.EncryptFolder(context.Background(), dir, "batch-pw")
	if err != nil {
		t.Fatalf("EncryptFolder() error = %v", err)
	}
	if enc.Succeeded != len(files) || enc.Total != len(files) {
		t.Fatalf("EncryptFolder() = %d/%d", enc.Succeeded, enc.Total)
	}

	for name := range files {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	dec, err := svc.DecryptFolder(context.Background(), dir, "batch-pw")
	if err != nil {
		t.Fatalf("DecryptFolder() error = %v", err)
	}
	if dec.Succeeded != len(files) || len(dec.Skipped) != 0 {
		t.Fatalf("DecryptFolder() = %d/%d, skipped %v", dec.Succeeded, dec.Total, dec.Skipped)
	}
	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("%s round-tripped to %q, want %q", name, got, content)
		}
	}
}
