package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"filecrypt/internal/core/domain"
)

const maxNameAttempts = 10000

// EncryptedPath is the output path for encrypting path.
func EncryptedPath(path string) string {
	return path + domain.EncryptedSuffix
}

// DecryptedPath is the natural output path for decrypting path, before
// collision avoidance. The marker suffix is removed when present; otherwise
// "_decrypted" goes in front of the extension.
//
// Exactly len(domain.EncryptedSuffix) bytes are removed. Older tools that cut
// a fixed ten characters name their output differently (notes.txt.Wh04ami
// became "notes.t" there, "notes.txt" here).
func DecryptedPath(path string) string {
	if strings.HasSuffix(path, domain.EncryptedSuffix) && filepath.Base(path) != domain.EncryptedSuffix {
		return strings.TrimSuffix(path, domain.EncryptedSuffix)
	}
	base, ext := splitExt(path)
	return base + domain.DecryptedInfix + ext
}

// splitExt splits off the extension of the final element. A leading dot is
// part of the name, not an extension.
func splitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	if ext == "" || ext == filepath.Base(path) {
		return path, ""
	}
	return strings.TrimSuffix(path, ext), ext
}

// ExistsResolver returns the candidate if it is free, otherwise the first
// free "<base>_<n><ext>" for n = 1, 2, ...
type ExistsResolver struct {
	exists func(path string) (bool, error)
}

func NewExistsResolver(exists func(path string) (bool, error)) *ExistsResolver {
	return &ExistsResolver{exists: exists}
}

func (r *ExistsResolver) Resolve(candidate string) (string, error) {
	taken, err := r.exists(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	base, ext := splitExt(candidate)
	for n := 1; n <= maxNameAttempts; n++ {
		p := fmt.Sprintf("%s_%d%s", base, n, ext)
		taken, err := r.exists(p)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", p, err)
		}
		if !taken {
			return p, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", candidate, maxNameAttempts)
}
