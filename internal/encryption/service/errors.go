package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/container"
	"filecrypt/internal/pkg/crypto/aes"
)

// Kind classifies why an operation failed.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNotReadable
	KindTooLarge
	KindContainerTooShort
	KindInvalidLength
	KindWrite
	KindOutputExists
	KindRandom
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNotReadable:
		return "not readable"
	case KindTooLarge:
		return "too large"
	case KindContainerTooShort:
		return "container too short"
	case KindInvalidLength:
		return "invalid length"
	case KindWrite:
		return "write failed"
	case KindOutputExists:
		return "output exists"
	case KindRandom:
		return "random source failed"
	case KindCanceled:
		return "canceled"
	default:
		return "internal error"
	}
}

// Error is the single error value the service returns. A successful decrypt
// never implies the password was right: there is no integrity check.
type Error struct {
	Op   string // "encrypt" or "decrypt"
	Path string // Source path, empty for in-memory operations
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func newError(op, path string, kind Kind, err error) error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func readKind(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, domain.ErrFileTooLarge):
		return KindTooLarge
	default:
		return KindNotReadable
	}
}

func writeKind(err error) Kind {
	if errors.Is(err, fs.ErrExist) {
		return KindOutputExists
	}
	return KindWrite
}

func cryptoKind(err error) Kind {
	switch {
	case errors.Is(err, container.ErrTooShort):
		return KindContainerTooShort
	case errors.Is(err, aes.ErrInvalidLength):
		return KindInvalidLength
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
