package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"

	"filecrypt/internal/config"
	"filecrypt/internal/logging"
)

// bucketAPI is the part of *s3.Client setup needs.
type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		logger.WithError(err).Fatal("Unable to load SDK config")
	}

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		logger.WithError(err).Warn("Unable to get caller identity")
	} else {
		logger.WithFields(logrus.Fields{
			"account": aws.ToString(identity.Account),
			"arn":     aws.ToString(identity.Arn),
		}).Info("AWS caller identity")
	}

	created, err := ensureBucket(ctx, s3.NewFromConfig(awsCfg), cfg.S3.Bucket, awsCfg.Region,
		[]string{cfg.S3.Prefix, cfg.S3.MetadataPrefix}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Setup failed")
	}

	logger.WithFields(logrus.Fields{
		"bucket":   cfg.S3.Bucket,
		"region":   awsCfg.Region,
		"created":  created,
		"prefixes": []string{cfg.S3.Prefix, cfg.S3.MetadataPrefix},
	}).Info("Setup completed")
}

// ensureBucket creates bucket when it is not reachable and places an empty
// marker object for each prefix so the layout is visible in the console.
// It reports whether the bucket was created.
func ensureBucket(ctx context.Context, client bucketAPI, bucket, region string, prefixes []string, logger logrus.FieldLogger) (bool, error) {
	if bucket == "" {
		return false, errors.New("bucket name is empty; set AWS_BUCKET_NAME or s3.bucket")
	}

	created := false
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		logger.WithField("bucket", bucket).Info("Creating bucket")
		input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}

		// us-east-1 rejects an explicit location constraint.
		if region != "" && region != "us-east-1" {
			input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(region),
			}
		}

		if _, err := client.CreateBucket(ctx, input); err != nil {
			return false, err
		}
		created = true
	} else {
		logger.WithField("bucket", bucket).Info("Bucket already exists")
	}

	for _, prefix := range prefixes {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(prefix),
		})
		if err != nil {
			logger.WithError(err).WithField("prefix", prefix).Warn("Unable to create folder")
		}
	}
	return created, nil
}
