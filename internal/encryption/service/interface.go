package service

import (
	"crypto/rand"
	"io"

	"github.com/sirupsen/logrus"

	"filecrypt/internal/core/ports"
	"filecrypt/internal/logging"
	"filecrypt/internal/pkg/crypto/aes"
	"filecrypt/internal/pkg/crypto/kdf"
)

type Service interface {
	ports.EncryptionService
	WriteNew(candidate string, data []byte) (string, error)
}

type EncryptionService struct {
	cipher   ports.BlockCipher
	kdf      ports.KeyDeriver
	random   io.Reader
	fs       ports.FileSystem
	resolver ports.PathResolver
	logger   logrus.FieldLogger
}

// Option configures an EncryptionService.
type Option func(*EncryptionService)

// WithRandom replaces the salt/IV source. Production code keeps crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(s *EncryptionService) { s.random = r }
}

func WithCipher(c ports.BlockCipher) Option {
	return func(s *EncryptionService) { s.cipher = c }
}

func WithKeyDeriver(k ports.KeyDeriver) Option {
	return func(s *EncryptionService) { s.kdf = k }
}

func WithPathResolver(r ports.PathResolver) Option {
	return func(s *EncryptionService) { s.resolver = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *EncryptionService) { s.logger = l }
}

func NewService(fsys ports.FileSystem, opts ...Option) Service {
	s := &EncryptionService{
		cipher: aes.NewCBCEncryptor(aes.KeySize),
		kdf:    kdf.New(),
		random: rand.Reader,
		fs:     fsys,
		logger: logging.Discard(),
	}
	if fsys != nil {
		s.resolver = NewExistsResolver(fsys.Exists)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
