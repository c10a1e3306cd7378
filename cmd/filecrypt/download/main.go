package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"filecrypt/internal/config"
	"filecrypt/internal/device"
	"filecrypt/internal/encryption/service"
	"filecrypt/internal/logging"
	"filecrypt/internal/remote"
	"filecrypt/internal/storage/local"
	"filecrypt/internal/storage/s3"
)

const passwordEnv = "FILECRYPT_PASSWORD"

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: download <backup-id> <output-dir>")
		os.Exit(2)
	}
	id, outputDir := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create output directory")
	}

	pw, err := readPassword(os.Stdin)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read password")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		logger.WithError(err).Fatal("Unable to load SDK config")
	}

	store, err := s3.NewClient(ctx, awsCfg, cfg.S3.Bucket, cfg.StorageOptions()...)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create storage client")
	}

	fsys, err := local.New(
		local.WithMaxFileSize(int64(cfg.Files.MaxFileSize)),
		local.WithChunkSize(int(cfg.Files.ChunkSize)),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create file system")
	}

	vault := remote.NewVault(service.NewService(fsys, service.WithLogger(logger)), store, fsys,
		remote.WithFingerprinter(device.New()),
		remote.WithLogger(logger),
	)

	out, err := vault.Restore(ctx, id, outputDir, pw)
	if err != nil {
		logger.WithError(err).Fatal("Restore failed")
	}
	fmt.Printf("Restored to: %s\n", out)
}

// readPassword takes FILECRYPT_PASSWORD when set, otherwise prompts on
// stdin without echo. A non-terminal stdin is refused rather than read, so
// a password is never taken from a pipe with its whitespace altered.
func readPassword(stdin *os.File) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; set " + passwordEnv)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
