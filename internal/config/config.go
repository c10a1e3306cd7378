package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"filecrypt/internal/encryption/chunking"
	"filecrypt/internal/storage"
	"filecrypt/internal/storage/s3"
)

const (
	// EnvConfigPath names the YAML config file to read.
	EnvConfigPath     = "FILECRYPT_CONFIG"
	DefaultConfigPath = "filecrypt.yaml"
)

// Config is the runtime configuration of the filecrypt binaries.
type Config struct {
	LogLevel  string      `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string      `yaml:"log_format" env:"LOG_FORMAT"` // text or json
	Files     FilesConfig `yaml:"files"`
	S3        S3Config    `yaml:"s3"`
}

type FilesConfig struct {
	MaxFileSize ByteSize `yaml:"max_file_size" env:"FILECRYPT_MAX_FILE_SIZE"`
	ChunkSize   ByteSize `yaml:"chunk_size" env:"FILECRYPT_CHUNK_SIZE"` // read buffer per chunk
}

type S3Config struct {
	Bucket         string   `yaml:"bucket" env:"AWS_BUCKET_NAME"`
	Region         string   `yaml:"region" env:"AWS_REGION"`
	Prefix         string   `yaml:"prefix" env:"FILECRYPT_S3_PREFIX"`
	MetadataPrefix string   `yaml:"metadata_prefix"`
	PartSize       ByteSize `yaml:"part_size" env:"FILECRYPT_S3_PART_SIZE"`
	Concurrency    int      `yaml:"concurrency" env:"FILECRYPT_S3_CONCURRENCY"`
}

// ByteSize accepts either a plain byte count or a human string like "10MiB".
type ByteSize int64

func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	n, err := ParseByteSize(value.Value)
	if err != nil {
		return err
	}
	*b = n
	return nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Files: FilesConfig{
			MaxFileSize: 1 << 30,
			ChunkSize:   chunking.DefaultChunkSize,
		},
		S3: S3Config{
			Bucket:         s3.DefaultConfig.BucketName,
			Region:         s3.DefaultConfig.Region,
			Prefix:         s3.DefaultConfig.ContainerPrefix,
			MetadataPrefix: s3.DefaultConfig.MetadataPrefix,
			PartSize:       ByteSize(s3.DefaultConfig.PartSize),
			Concurrency:    s3.DefaultConfig.Concurrency,
		},
	}
}

// Load reads an optional .env file, then the YAML file named by
// FILECRYPT_CONFIG (or filecrypt.yaml), then applies environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadConfig(path)
}

// LoadConfig builds a Config from defaults, the YAML file at path (a missing
// file is ignored) and the environment, then validates it.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadFromEnv(config *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.LogFormat = v
	}
	if v := os.Getenv("AWS_BUCKET_NAME"); v != "" {
		config.S3.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.S3.Region = v
	}
	if v := os.Getenv("FILECRYPT_S3_PREFIX"); v != "" {
		config.S3.Prefix = v
	}

	sizes := []struct {
		env string
		dst *ByteSize
	}{
		{"FILECRYPT_MAX_FILE_SIZE", &config.Files.MaxFileSize},
		{"FILECRYPT_CHUNK_SIZE", &config.Files.ChunkSize},
		{"FILECRYPT_S3_PART_SIZE", &config.S3.PartSize},
	}
	for _, s := range sizes {
		v := os.Getenv(s.env)
		if v == "" {
			continue
		}
		n, err := ParseByteSize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", s.env, err)
		}
		*s.dst = n
	}

	if v := os.Getenv("FILECRYPT_S3_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FILECRYPT_S3_CONCURRENCY: %w", err)
		}
		config.S3.Concurrency = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "panic", "fatal", "error", "warn", "warning", "info", "debug", "trace":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}

	if c.Files.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if err := chunking.ValidateChunkSize(int(c.Files.ChunkSize)); err != nil {
		return fmt.Errorf("chunk_size: %w", err)
	}

	if c.S3.PartSize < s3.MinPartSize {
		return fmt.Errorf("part_size must be at least %s", ByteSize(s3.MinPartSize))
	}
	if c.S3.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}

// StorageOptions translates the S3 section into store options.
func (c *Config) StorageOptions() []func(*storage.Config) {
	return []func(*storage.Config){
		s3.WithPrefixes(c.S3.Prefix, c.S3.MetadataPrefix),
		s3.WithMultipart(int64(c.S3.PartSize), c.S3.Concurrency),
	}
}
