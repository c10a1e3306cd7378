package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"

	"filecrypt/internal/encryption/container"
	"filecrypt/internal/pkg/crypto/padding"
)

const (
	opDecrypt = "decrypt"

	// maxWriteAttempts bounds re-resolution when another writer takes the
	// resolved name between the existence check and the write.
	maxWriteAttempts = 5
)

// DecryptBytes is the in-memory inverse of EncryptBytes.
//
// A wrong password is not detected: it yields garbage of roughly the right
// length. Only a misaligned or too short container produces an error.
func (s *EncryptionService) DecryptBytes(ctx context.Context, data []byte, password string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(opDecrypt, "", KindCanceled, err)
	}
	out, kind, err := s.open(data, password)
	if err != nil {
		return nil, newError(opDecrypt, "", kind, err)
	}
	return out, nil
}

// DecryptFile decrypts path and writes the result next to it, returning the
// output path. The marker suffix is stripped when present, otherwise
// "_decrypted" is inserted before the extension; a numeric suffix is added
// until the name is free. Existing files are never overwritten.
//
// Success does not prove the password was correct.
func (s *EncryptionService) DecryptFile(ctx context.Context, path string, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(opDecrypt, path, KindCanceled, err)
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", newError(opDecrypt, path, readKind(err), err)
	}

	plaintext, kind, err := s.open(data, password)
	if err != nil {
		return "", newError(opDecrypt, path, kind, err)
	}

	outputPath, err := s.writeResolved(DecryptedPath(path), plaintext)
	if err != nil {
		return "", newError(opDecrypt, path, writeKind(err), err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":   path,
		"output": outputPath,
		"size":   len(plaintext),
	}).Info("file decrypted")

	return outputPath, nil
}

// WriteNew writes data to the first free name derived from candidate and
// returns the chosen path.
func (s *EncryptionService) WriteNew(candidate string, data []byte) (string, error) {
	out, err := s.writeResolved(candidate, data)
	if err != nil {
		return "", newError("write", candidate, writeKind(err), err)
	}
	return out, nil
}

func (s *EncryptionService) writeResolved(candidate string, data []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		outputPath, err := s.resolver.Resolve(candidate)
		if err != nil {
			return "", err
		}
		err = s.fs.WriteFileExclusive(outputPath, data)
		if err == nil {
			return outputPath, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		lastErr = err
		s.logger.WithField("output", outputPath).Debug("output name taken, resolving again")
	}
	// Not reported as fs.ErrExist: the caller asked for any free name.
	return "", fmt.Errorf("failed to find a free output name after %d attempts: %v", maxWriteAttempts, lastErr)
}

func (s *EncryptionService) open(data []byte, password string) ([]byte, Kind, error) {
	c, err := container.Deserialize(data)
	if err != nil {
		return nil, cryptoKind(err), err
	}

	key := s.kdf.DeriveKey([]byte(password), c.Salt)
	defer clear(key)

	plaintext, err := s.cipher.DecryptCBC(key, c.IV, c.Ciphertext)
	if err != nil {
		return nil, cryptoKind(err), fmt.Errorf("failed to decrypt data: %w", err)
	}
	return padding.Unpad(plaintext), KindInternal, nil
}
