package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"filecrypt/internal/storage"
)

// API is the subset of *s3.Client the store uses.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

type Store struct {
	client  API
	config  storage.Config
	backoff func(attempt int) time.Duration
}

func New(client API, config storage.Config) *Store {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	return &Store{
		client: client,
		config: config,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

func (s *Store) containerKey(id string) string {
	return path.Join(s.config.ContainerPrefix, id)
}

func (s *Store) metadataKey(id string) string {
	return path.Join(s.config.MetadataPrefix, id+".json")
}

// PutContainer uploads the container and its metadata. An empty ID is
// replaced by a new UUID; the stored metadata is returned.
func (s *Store) PutContainer(ctx context.Context, data []byte, metadata storage.ObjectMetadata) (storage.ObjectMetadata, error) {
	if metadata.ID == "" {
		metadata.ID = uuid.NewString()
	}
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = time.Now().UTC()
	}
	metadata.EncryptedSize = int64(len(data))

	key := s.containerKey(metadata.ID)
	var err error
	if s.config.PartSize > 0 && int64(len(data)) > s.config.PartSize {
		err = s.uploadMultipart(ctx, key, data)
	} else {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.config.BucketName),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/octet-stream"),
		})
	}
	if err != nil {
		return metadata, fmt.Errorf("failed to store container: %w", err)
	}

	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return metadata, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(s.metadataKey(metadata.ID)),
		Body:        bytes.NewReader(metadataBytes),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return metadata, fmt.Errorf("failed to store metadata: %w", err)
	}

	return metadata, nil
}

func (s *Store) GetContainer(ctx context.Context, id string) ([]byte, storage.ObjectMetadata, error) {
	metadata, err := s.getMetadata(ctx, s.metadataKey(id))
	if err != nil {
		return nil, storage.ObjectMetadata{}, err
	}

	data, err := s.getObject(ctx, s.containerKey(id))
	if err != nil {
		return nil, metadata, fmt.Errorf("failed to get container: %w", err)
	}
	return data, metadata, nil
}

// ListContainers returns the metadata of every stored container, oldest first.
func (s *Store) ListContainers(ctx context.Context) ([]storage.ObjectMetadata, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(s.config.MetadataPrefix),
	})

	var out []storage.ObjectMetadata
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list containers: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			metadata, err := s.getMetadata(ctx, key)
			if err != nil {
				return nil, err
			}
			out = append(out, metadata)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteContainer(ctx context.Context, id string) error {
	for _, key := range []string{s.containerKey(id), s.metadataKey(id)} {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.config.BucketName),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// GetConfig returns the store configuration
func (s *Store) GetConfig() storage.Config {
	return s.config
}

func (s *Store) getMetadata(ctx context.Context, key string) (storage.ObjectMetadata, error) {
	raw, err := s.getObject(ctx, key)
	if err != nil {
		return storage.ObjectMetadata{}, fmt.Errorf("failed to get metadata: %w", err)
	}

	var metadata storage.ObjectMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return storage.ObjectMetadata{}, fmt.Errorf("failed to parse metadata %s: %w", key, err)
	}
	return metadata, nil
}

func (s *Store) getObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, err
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// uploadPart uploads one part, retrying with quadratic backoff.
func (s *Store) uploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (types.CompletedPart, error) {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return types.CompletedPart{}, ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}

		response, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(s.config.BucketName),
			Key:        aws.String(key),
			PartNumber: aws.Int32(partNumber),
			UploadId:   aws.String(uploadID),
			Body:       bytes.NewReader(data),
		})
		if err == nil {
			return types.CompletedPart{
				ETag:       response.ETag,
				PartNumber: aws.Int32(partNumber),
			}, nil
		}
		lastErr = err
	}
	return types.CompletedPart{}, fmt.Errorf("failed to upload part %d after %d attempts: %w", partNumber, s.config.MaxRetries, lastErr)
}

// uploadMultipart uploads data in parts with bounded concurrency and aborts
// the upload if any part fails.
func (s *Store) uploadMultipart(ctx context.Context, key string, data []byte) error {
	createResp, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("failed to create multipart upload: %w", err)
	}
	uploadID := aws.ToString(createResp.UploadId)

	size := len(data)
	partSize := max(int(s.config.PartSize), size/s.config.Concurrency)
	numParts := (size + partSize - 1) / partSize

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		parts    = make([]types.CompletedPart, 0, numParts)
		firstErr error
	)
	sem := make(chan struct{}, s.config.Concurrency)

	for i := 0; i < numParts; i++ {
		wg.Add(1)
		go func(partNum int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			start := partNum * partSize
			end := min((partNum+1)*partSize, size)

			part, err := s.uploadPart(ctx, key, uploadID, int32(partNum+1), data[start:end])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			parts = append(parts, part)
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		_, abortErr := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.config.BucketName),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
		})
		if abortErr != nil {
			return errors.Join(firstErr, fmt.Errorf("failed to abort multipart upload: %w", abortErr))
		}
		return firstErr
	}

	// S3 requires ascending part numbers.
	sort.Slice(parts, func(i, j int) bool {
		return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber)
	})

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.config.BucketName),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: parts,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", err)
	}
	return nil
}
