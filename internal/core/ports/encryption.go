// filecrypt/internal/core/ports/encryption.go
package ports

import (
	"context"

	"filecrypt/internal/core/domain"
)

type EncryptionService interface {
	EncryptBytes(ctx context.Context, data []byte, password string) ([]byte, error)
	DecryptBytes(ctx context.Context, container []byte, password string) ([]byte, error)
	EncryptFile(ctx context.Context, path string, password string) (string, error)
	DecryptFile(ctx context.Context, path string, password string) (string, error)
	EncryptFolder(ctx context.Context, dir string, password string) (*domain.BatchResult, error)
	DecryptFolder(ctx context.Context, dir string, password string) (*domain.BatchResult, error)
}

// BlockCipher applies a 16-byte block cipher in CBC mode.
type BlockCipher interface {
	EncryptCBC(key, iv, plaintext []byte) ([]byte, error)
	DecryptCBC(key, iv, ciphertext []byte) ([]byte, error)
}

type KeyDeriver interface {
	DeriveKey(password, salt []byte) []byte
}

// FileSystem is the byte source and sink the file services work against.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFileExclusive creates path with data. It fails with an error
	// matching fs.ErrExist if path already exists and never leaves a partial
	// file under path.
	WriteFileExclusive(path string, data []byte) error
	Exists(path string) (bool, error)
	ListFiles(dir string) ([]string, error)
}

// PathResolver picks a free output path starting from candidate.
type PathResolver interface {
	Resolve(candidate string) (string, error)
}
