package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filecrypt/internal/logging"
)

type fakeBuckets struct {
	exists  bool
	created *s3.CreateBucketInput
	keys    []string
}

func (f *fakeBuckets) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !f.exists {
		return nil, errors.New("not found")
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeBuckets) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = in
	f.exists = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeBuckets) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name           string
		exists         bool
		region         string
		wantCreated    bool
		wantConstraint bool
	}{
		{name: "existing bucket", exists: true, region: "eu-west-1"},
		{name: "new bucket in us-east-1", region: "us-east-1", wantCreated: true},
		{name: "new bucket elsewhere", region: "eu-central-1", wantCreated: true, wantConstraint: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeBuckets{exists: tt.exists}
			created, err := ensureBucket(context.Background(), client, "vault", tt.region,
				[]string{"containers/", "metadata/"}, logging.Discard())
			require.NoError(t, err)

			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, []string{"containers/", "metadata/"}, client.keys)
			if tt.wantCreated {
				require.NotNil(t, client.created)
				assert.Equal(t, tt.wantConstraint, client.created.CreateBucketConfiguration != nil)
			}
		})
	}
}

func TestEnsureBucket_EmptyName(t *testing.T) {
	_, err := ensureBucket(context.Background(), &fakeBuckets{}, "", "us-east-1", nil, logging.Discard())
	assert.Error(t, err)
}
