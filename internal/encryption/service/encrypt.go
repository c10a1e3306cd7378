package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/container"
	"filecrypt/internal/pkg/crypto/padding"
)

const opEncrypt = "encrypt"

// EncryptBytes returns salt || iv || AES-256-CBC(pad(data)) with a fresh salt
// and IV. No file I/O is done.
func (s *EncryptionService) EncryptBytes(ctx context.Context, data []byte, password string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(opEncrypt, "", KindCanceled, err)
	}
	out, kind, err := s.seal(data, password)
	if err != nil {
		return nil, newError(opEncrypt, "", kind, err)
	}
	return out, nil
}

// EncryptFile writes the container for path to path + domain.EncryptedSuffix
// and returns that path. The source file is left untouched and an existing
// output file is never replaced.
func (s *EncryptionService) EncryptFile(ctx context.Context, path string, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(opEncrypt, path, KindCanceled, err)
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", newError(opEncrypt, path, readKind(err), err)
	}

	sealed, kind, err := s.seal(data, password)
	if err != nil {
		return "", newError(opEncrypt, path, kind, err)
	}

	outputPath := EncryptedPath(path)
	if err := s.fs.WriteFileExclusive(outputPath, sealed); err != nil {
		return "", newError(opEncrypt, path, writeKind(err), err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":   path,
		"output": outputPath,
		"size":   len(data),
	}).Info("file encrypted")

	return outputPath, nil
}

func (s *EncryptionService) seal(data []byte, password string) ([]byte, Kind, error) {
	salt := make([]byte, domain.SaltSize)
	if _, err := io.ReadFull(s.random, salt); err != nil {
		return nil, KindRandom, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, domain.IVSize)
	if _, err := io.ReadFull(s.random, iv); err != nil {
		return nil, KindRandom, fmt.Errorf("failed to generate IV: %w", err)
	}

	key := s.kdf.DeriveKey([]byte(password), salt)
	defer clear(key)

	ciphertext, err := s.cipher.EncryptCBC(key, iv, padding.Pad(data))
	if err != nil {
		return nil, cryptoKind(err), fmt.Errorf("failed to encrypt data: %w", err)
	}

	out, err := container.Serialize(domain.Container{Salt: salt, IV: iv, Ciphertext: ciphertext})
	if err != nil {
		return nil, KindInternal, err
	}
	return out, KindInternal, nil
}
