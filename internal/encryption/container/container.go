package container

import (
	"errors"
	"fmt"

	"filecrypt/internal/core/domain"
)

var ErrTooShort = errors.New("container is too short to be a valid encrypted file")

// Serialize concatenates salt, iv and ciphertext. The salt and IV must be
// exactly domain.SaltSize and domain.IVSize bytes.
func Serialize(c domain.Container) ([]byte, error) {
	if len(c.Salt) != domain.SaltSize {
		return nil, fmt.Errorf("invalid salt size: expected %d, got %d", domain.SaltSize, len(c.Salt))
	}
	if len(c.IV) != domain.IVSize {
		return nil, fmt.Errorf("invalid IV size: expected %d, got %d", domain.IVSize, len(c.IV))
	}

	out := make([]byte, 0, domain.HeaderSize+len(c.Ciphertext))
	out = append(out, c.Salt...)
	out = append(out, c.IV...)
	out = append(out, c.Ciphertext...)
	return out, nil
}

// Deserialize splits buf into its parts. The returned slices alias buf.
// Ciphertext alignment is not checked here; the cipher rejects it.
func Deserialize(buf []byte) (domain.Container, error) {
	if len(buf) < domain.HeaderSize {
		return domain.Container{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooShort, len(buf), domain.HeaderSize)
	}
	return domain.Container{
		Salt:       buf[:domain.SaltSize],
		IV:         buf[domain.SaltSize:domain.HeaderSize],
		Ciphertext: buf[domain.HeaderSize:],
	}, nil
}
