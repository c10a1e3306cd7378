// filecrypt/internal/core/domain/types.go
package domain

import (
	"errors"
	"time"
)

const (
	SaltSize   = 16
	IVSize     = 16
	HeaderSize = SaltSize + IVSize

	// EncryptedSuffix marks files written by this tool.
	EncryptedSuffix = ".Wh04ami"
	// DecryptedInfix is inserted before the extension when the input lacks
	// EncryptedSuffix.
	DecryptedInfix = "_decrypted"
)

// ErrFileTooLarge is returned by file sources that refuse to load a file
// into memory.
var ErrFileTooLarge = errors.New("file is too large to process in memory")

// Container is the on-disk layout: salt || iv || ciphertext.
type Container struct {
	Salt       []byte
	IV         []byte
	Ciphertext []byte
}

// FileFailure records one file a batch operation could not process.
type FileFailure struct {
	Path string
	Err  error
}

// BatchResult summarises a folder operation.
type BatchResult struct {
	Directory string
	Total     int
	Succeeded int
	Outputs   []string
	Skipped   []string
	Failures  []FileFailure
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports the number of files that could not be processed.
func (r BatchResult) Failed() int {
	return len(r.Failures)
}
