package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"filecrypt/internal/storage"
)

const (
	// S3 rejects multipart parts under 5MB except the last one.
	MinPartSize = 5 * 1024 * 1024
)

// DefaultConfig provides default configuration values
var DefaultConfig = storage.Config{
	BucketName:      "filecrypt-vault",
	Region:          "us-east-1",
	ContainerPrefix: "containers/",
	MetadataPrefix:  "metadata/",
	PartSize:        10 * 1024 * 1024,
	Concurrency:     5,
	MaxRetries:      3,
}

// NewClient creates a new S3-backed store and verifies the bucket is reachable.
func NewClient(ctx context.Context, cfg aws.Config, bucket string, opts ...func(*storage.Config)) (*Store, error) {
	client := s3.NewFromConfig(cfg)

	// Verify bucket exists and is accessible
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", bucket, err)
	}

	config := DefaultConfig
	config.BucketName = bucket
	config.Region = cfg.Region
	for _, opt := range opts {
		opt(&config)
	}

	return New(client, config), nil
}

// WithPrefixes sets custom prefixes for containers and metadata
func WithPrefixes(container, metadata string) func(*storage.Config) {
	return func(c *storage.Config) {
		if container != "" {
			c.ContainerPrefix = container
		}
		if metadata != "" {
			c.MetadataPrefix = metadata
		}
	}
}

// WithMultipart sets the multipart threshold/part size and upload parallelism
func WithMultipart(partSize int64, concurrency int) func(*storage.Config) {
	return func(c *storage.Config) {
		if partSize >= MinPartSize {
			c.PartSize = partSize
		}
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}
