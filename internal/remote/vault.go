// Package remote backs encrypted containers up to a storage.Store and
// restores them. Files are sealed locally; the store only sees containers.
package remote

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"filecrypt/internal/core/ports"
	"filecrypt/internal/encryption/service"
	"filecrypt/internal/logging"
	"filecrypt/internal/storage"
)

// Fingerprinter identifies the current machine.
type Fingerprinter interface {
	GetDeviceInfo() (storage.DeviceInfo, error)
	ValidateDevice(stored storage.DeviceInfo) (bool, error)
}

type Vault struct {
	crypto service.Service
	store  storage.Store
	fs     ports.FileSystem
	device Fingerprinter
	logger logrus.FieldLogger
}

type Option func(*Vault)

// WithFingerprinter stamps backups with device information and checks it on
// restore.
func WithFingerprinter(f Fingerprinter) Option {
	return func(v *Vault) { v.device = f }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(v *Vault) { v.logger = l }
}

func NewVault(crypto service.Service, store storage.Store, fsys ports.FileSystem, opts ...Option) *Vault {
	v := &Vault{
		crypto: crypto,
		store:  store,
		fs:     fsys,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Backup seals the file at path with password and uploads the container.
func (v *Vault) Backup(ctx context.Context, path, password string) (storage.ObjectMetadata, error) {
	data, err := v.fs.ReadFile(path)
	if err != nil {
		return storage.ObjectMetadata{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sealed, err := v.crypto.EncryptBytes(ctx, data, password)
	if err != nil {
		return storage.ObjectMetadata{}, fmt.Errorf("failed to encrypt %s: %w", path, err)
	}

	metadata := storage.ObjectMetadata{
		OriginalName: filepath.Base(path),
		Size:         int64(len(data)),
	}
	if v.device != nil {
		info, err := v.device.GetDeviceInfo()
		if err != nil {
			v.logger.WithError(err).Warn("device fingerprint unavailable")
		} else {
			metadata.Device = info
		}
	}

	metadata, err = v.store.PutContainer(ctx, sealed, metadata)
	if err != nil {
		return storage.ObjectMetadata{}, fmt.Errorf("failed to upload %s: %w", path, err)
	}

	v.logger.WithFields(logrus.Fields{
		"path": path,
		"id":   metadata.ID,
		"size": metadata.EncryptedSize,
	}).Info("file backed up")
	return metadata, nil
}

// Restore downloads container id, decrypts it and writes the plaintext into
// destDir under its original name, picking a free name if that one is taken.
// As with local decryption, a wrong password is not detected.
func (v *Vault) Restore(ctx context.Context, id, destDir, password string) (string, error) {
	sealed, metadata, err := v.store.GetContainer(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", id, err)
	}

	if v.device != nil && metadata.Device.DeviceID != "" {
		same, err := v.device.ValidateDevice(metadata.Device)
		switch {
		case err != nil:
			v.logger.WithError(err).Warn("could not compare device fingerprint")
		case !same:
			v.logger.WithFields(logrus.Fields{
				"id":       id,
				"platform": metadata.Device.Platform,
			}).Warn("container was backed up from a different device")
		}
	}

	plaintext, err := v.crypto.DecryptBytes(ctx, sealed, password)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", id, err)
	}

	out, err := v.crypto.WriteNew(filepath.Join(destDir, restoreName(metadata)), plaintext)
	if err != nil {
		return "", err
	}

	v.logger.WithFields(logrus.Fields{
		"id":     id,
		"output": out,
	}).Info("file restored")
	return out, nil
}

// restoreName keeps only the base of the recorded name so a crafted
// metadata object cannot write outside destDir.
func restoreName(metadata storage.ObjectMetadata) string {
	name := filepath.Base(filepath.Clean("/" + metadata.OriginalName))
	if name == "/" || name == "." {
		return metadata.ID
	}
	return name
}

func (v *Vault) List(ctx context.Context) ([]storage.ObjectMetadata, error) {
	objects, err := v.store.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return objects, nil
}

func (v *Vault) Delete(ctx context.Context, id string) error {
	if err := v.store.DeleteContainer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete backup %s: %w", id, err)
	}
	v.logger.WithField("id", id).Info("backup deleted")
	return nil
}
