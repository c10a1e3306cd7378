package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

// DeviceInfo identifies the machine a container was backed up from.
type DeviceInfo struct {
	DeviceID     string            // Unique device identifier
	HardwareHash string            // Hardware-specific hash
	Platform     string            // OS/Platform info
	Fingerprint  map[string]string // Additional device fingerprinting data
}

// ObjectMetadata describes a stored container. The password is never part of it.
type ObjectMetadata struct {
	ID            string
	OriginalName  string
	Size          int64 // Plaintext size
	EncryptedSize int64
	Device        DeviceInfo
	CreatedAt     time.Time
}

// Store keeps encrypted containers off-machine.
type Store interface {
	PutContainer(ctx context.Context, data []byte, metadata ObjectMetadata) (ObjectMetadata, error)
	GetContainer(ctx context.Context, id string) ([]byte, ObjectMetadata, error)
	ListContainers(ctx context.Context) ([]ObjectMetadata, error)
	DeleteContainer(ctx context.Context, id string) error
}

// Config holds configuration for storage services
type Config struct {
	BucketName      string
	Region          string
	ContainerPrefix string
	MetadataPrefix  string
	PartSize        int64 // Containers larger than this use multipart upload
	Concurrency     int   // Parallel part uploads
	MaxRetries      int   // Attempts per part
}
