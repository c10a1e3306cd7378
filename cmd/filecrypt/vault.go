package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"

	"filecrypt/internal/config"
	"filecrypt/internal/device"
	"filecrypt/internal/encryption/service"
	"filecrypt/internal/remote"
	"filecrypt/internal/storage/local"
	"filecrypt/internal/storage/s3"
)

func openVault(ctx context.Context, cfg *config.Config, svc service.Service, fsys *local.FS, logger logrus.FieldLogger) (*remote.Vault, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	store, err := s3.NewClient(ctx, awsCfg, cfg.S3.Bucket, cfg.StorageOptions()...)
	if err != nil {
		return nil, err
	}

	sc := store.GetConfig()
	logger.WithFields(logrus.Fields{
		"bucket":      sc.BucketName,
		"region":      sc.Region,
		"part_size":   sc.PartSize,
		"concurrency": sc.Concurrency,
	}).Debug("Connected to remote storage")
	return remote.NewVault(svc, store, fsys,
		remote.WithFingerprinter(device.New()),
		remote.WithLogger(logger),
	), nil
}
