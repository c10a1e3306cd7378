package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"filecrypt/internal/core/domain"
)

// EncryptFolder encrypts every regular file directly inside dir, one at a
// time. Files already carrying the marker suffix are skipped. A failing file
// is recorded and the batch continues; cancellation stops before the next
// file and returns the partial result with the context error.
func (s *EncryptionService) EncryptFolder(ctx context.Context, dir string, password string) (*domain.BatchResult, error) {
	return s.runFolder(ctx, opEncrypt, dir, func(path string) bool {
		return !strings.HasSuffix(path, domain.EncryptedSuffix)
	}, func(path string) (string, error) {
		return s.EncryptFile(ctx, path, password)
	})
}

// DecryptFolder decrypts every file in dir that carries the marker suffix.
func (s *EncryptionService) DecryptFolder(ctx context.Context, dir string, password string) (*domain.BatchResult, error) {
	return s.runFolder(ctx, opDecrypt, dir, func(path string) bool {
		return strings.HasSuffix(path, domain.EncryptedSuffix) && filepath.Base(path) != domain.EncryptedSuffix
	}, func(path string) (string, error) {
		return s.DecryptFile(ctx, path, password)
	})
}

func (s *EncryptionService) runFolder(
	ctx context.Context,
	op, dir string,
	include func(path string) bool,
	process func(path string) (string, error),
) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Directory: dir,
		StartedAt: time.Now(),
	}

	files, err := s.fs.ListFiles(dir)
	if err != nil {
		return nil, newError(op, dir, readKind(err), err)
	}

	var todo []string
	for _, f := range files {
		if include(f) {
			todo = append(todo, f)
		} else {
			result.Skipped = append(result.Skipped, f)
		}
	}
	result.Total = len(todo)

	log := s.logger.WithFields(logrus.Fields{"op": op, "dir": dir})
	for _, path := range todo {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(result.StartedAt)
			return result, newError(op, dir, KindCanceled, err)
		}

		out, err := process(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("file failed, continuing")
			result.Failures = append(result.Failures, domain.FileFailure{Path: path, Err: err})
			continue
		}
		result.Succeeded++
		result.Outputs = append(result.Outputs, out)
	}

	result.Duration = time.Since(result.StartedAt)
	log.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"total":     result.Total,
		"skipped":   len(result.Skipped),
	}).Info("batch finished")

	return result, nil
}
