// filecrypt/internal/pkg/crypto/kdf/kdf.go
package kdf

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	KeySize    = 32 // AES-256
	Iterations = 100000
)

// PBKDF2 derives keys with PBKDF2-HMAC-SHA256. The parameters are part of the
// container convention: changing them makes existing files unreadable.
type PBKDF2 struct {
	iterations int
	keySize    int
}

func New() *PBKDF2 {
	return &PBKDF2{
		iterations: Iterations,
		keySize:    KeySize,
	}
}

// DeriveKey returns a KeySize key for password and salt. It is deterministic
// and never fails.
func (p *PBKDF2) DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, p.iterations, p.keySize, sha256.New)
}

// DeriveKey is a convenience wrapper using the default parameters.
func DeriveKey(password, salt []byte) []byte {
	return New().DeriveKey(password, salt)
}
