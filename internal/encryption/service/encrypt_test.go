package service

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/service/mocks"
	"filecrypt/internal/pkg/crypto/kdf"
	"filecrypt/internal/pkg/crypto/padding"
	"filecrypt/internal/storage/local"
)

func newLocalService(t *testing.T, opts ...Option) Service {
	t.Helper()
	fsys, err := local.New()
	if err != nil {
		t.Fatalf("local.New() error = %v", err)
	}
	return NewService(fsys, opts...)
}

func TestEncryptionService_EncryptBytes(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		wantLength int
		wantErr    bool
	}{
		{
			name:       "Success - Small file",
			input:      []byte("Hello, World!"),
			wantLength: domain.HeaderSize + 16,
		},
		{
			name:       "Success - Empty file",
			input:      []byte{},
			wantLength: domain.HeaderSize + 16,
		},
		{
			name:       "Success - Aligned input gets a full padding block",
			input:      bytes.Repeat([]byte{7}, 32),
			wantLength: domain.HeaderSize + 48,
		},
		{
			name:       "Success - Multiple blocks",
			input:      bytes.Repeat([]byte("data"), 1000),
			wantLength: domain.HeaderSize + 4016,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(mocks.NewMockFileSystem())

			out, err := svc.EncryptBytes(context.Background(), tt.input, "Tr0ub4dor&3")
			if (err != nil) != tt.wantErr {
				t.Fatalf("EncryptBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(out) != tt.wantLength {
				t.Errorf("EncryptBytes() length = %d, want %d", len(out), tt.wantLength)
			}
			if (len(out)-domain.HeaderSize)%padding.BlockSize != 0 {
				t.Error("ciphertext is not block aligned")
			}
		})
	}
}

func TestEncryptionService_EncryptBytes_RandomFails(t *testing.T) {
	svc := NewService(mocks.NewMockFileSystem(), WithRandom(mocks.ErrorReader{Err: errors.New("entropy exhausted")}))

	_, err := svc.EncryptBytes(context.Background(), []byte("test"), "pw")
	if !IsKind(err, KindRandom) {
		t.Fatalf("EncryptBytes() error = %v, want KindRandom", err)
	}
}

func TestEncryptionService_EncryptBytes_Golden(t *testing.T) {
	password := "Tr0ub4dor&3"
	plaintext := []byte("hello world, crypto!")

	svc := NewService(mocks.NewMockFileSystem(), WithRandom(mocks.NewCountingReader(0)))
	out, err := svc.EncryptBytes(context.Background(), plaintext, password)
	if err != nil {
		t.Fatalf("EncryptBytes() error = %v", err)
	}

	salt := make([]byte, 16)
	iv := make([]byte, 16)
	for i := range salt {
		salt[i] = byte(i)
		iv[i] = byte(16 + i)
	}

	key := kdf.DeriveKey([]byte(password), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	padded := append(append([]byte(nil), plaintext...), bytes.Repeat([]byte{12}, 12)...)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	want := append(append(append([]byte(nil), salt...), iv...), ciphertext...)
	if !bytes.Equal(out, want) {
		t.Errorf("EncryptBytes() =\n%x\nwant\n%x", out, want)
	}
	if len(out) != 64 {
		t.Errorf("container length = %d, want 64", len(out))
	}
}

func TestEncryptionService_EncryptBytes_EmptyInputIsOnePaddingBlock(t *testing.T) {
	password := "pw"
	svc := NewService(mocks.NewMockFileSystem())

	out, err := svc.EncryptBytes(context.Background(), nil, password)
	if err != nil {
		t.Fatalf("EncryptBytes() error = %v", err)
	}
	if len(out) != 48 {
		t.Fatalf("container length = %d, want 48", len(out))
	}

	key := kdf.DeriveKey([]byte(password), out[:16])
	block, _ := aes.NewCipher(key)
	plain := make([]byte, 16)
	cipher.NewCBCDecrypter(block, out[16:32]).CryptBlocks(plain, out[32:])
	if !bytes.Equal(plain, bytes.Repeat([]byte{0x10}, 16)) {
		t.Errorf("padding block = %x, want sixteen 0x10 bytes", plain)
	}
}

func TestEncryptionService_EncryptBytes_Unique(t *testing.T) {
	svc := NewService(mocks.NewMockFileSystem())
	input := []byte("same input, same password")

	a, err := svc.EncryptBytes(context.Background(), input, "pw")
	if err != nil {
		t.Fatalf("EncryptBytes() error = %v", err)
	}
	b, err := svc.EncryptBytes(context.Background(), input, "pw")
	if err != nil {
		t.Fatalf("EncryptBytes() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions produced identical containers")
	}
	if bytes.Equal(a[:16], b[:16]) || bytes.Equal(a[16:32], b[16:32]) {
		t.Error("salt or IV reused")
	}
}

func TestEncryptionService_EncryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.txt")
	content := []byte("quarterly numbers")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newLocalService(t)
	out, err := svc.EncryptFile(context.Background(), src, "pw")
	if err != nil {
		t.Fatalf("EncryptFile() error = %v", err)
	}
	if out != src+domain.EncryptedSuffix {
		t.Errorf("EncryptFile() output = %s, want %s", out, src+domain.EncryptedSuffix)
	}

	sealed, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(sealed) != domain.HeaderSize+32 {
		t.Errorf("output length = %d, want %d", len(sealed), domain.HeaderSize+32)
	}

	original, err := os.ReadFile(src)
	if err != nil || !bytes.Equal(original, content) {
		t.Error("source file was modified")
	}

	// A second run must not replace the existing output.
	_, err = svc.EncryptFile(context.Background(), src, "other")
	if !IsKind(err, KindOutputExists) {
		t.Fatalf("second EncryptFile() error = %v, want KindOutputExists", err)
	}
	again, _ := os.ReadFile(out)
	if !bytes.Equal(again, sealed) {
		t.Error("existing output was overwritten")
	}
}

func TestEncryptionService_EncryptFile_Failures(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockFileSystem)
		wantKind  Kind
	}{
		{
			name:      "Failure - Missing source",
			setupMock: nil,
			wantKind:  KindNotFound,
		},
		{
			name: "Failure - Unreadable source",
			setupMock: func(m *mocks.MockFileSystem) {
				m.ReadFileFunc = func(path string) ([]byte, error) {
					return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
				}
			},
			wantKind: KindNotReadable,
		},
		{
			name: "Failure - Source too large",
			setupMock: func(m *mocks.MockFileSystem) {
				m.ReadFileFunc = func(path string) ([]byte, error) {
					return nil, domain.ErrFileTooLarge
				}
			},
			wantKind: KindTooLarge,
		},
		{
			name: "Failure - Disk full",
			setupMock: func(m *mocks.MockFileSystem) {
				m.Put("/data/in.txt", []byte("payload"))
				m.WriteFileExclusiveFunc = func(path string, data []byte) error {
					return &fs.PathError{Op: "write", Path: path, Err: errors.New("no space left on device")}
				}
			},
			wantKind: KindWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks.NewMockFileSystem()
			if tt.setupMock != nil {
				tt.setupMock(m)
			}
			svc := NewService(m)

			_, err := svc.EncryptFile(context.Background(), "/data/in.txt", "pw")
			if !IsKind(err, tt.wantKind) {
				t.Fatalf("EncryptFile() error = %v, want kind %v", err, tt.wantKind)
			}
			var se *Error
			if !errors.As(err, &se) || se.Op != "encrypt" || se.Path != "/data/in.txt" {
				t.Errorf("error lacks context: %#v", err)
			}
			if _, ok := m.Get("/data/in.txt" + domain.EncryptedSuffix); ok {
				t.Error("output written despite failure")
			}
		})
	}
}

func TestEncryptionService_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(mocks.NewMockFileSystem())
	if _, err := svc.EncryptBytes(ctx, []byte("x"), "pw"); !IsKind(err, KindCanceled) {
		t.Errorf("EncryptBytes() error = %v, want KindCanceled", err)
	}
	if _, err := svc.EncryptFile(ctx, "/x", "pw"); !errors.Is(err, context.Canceled) {
		t.Errorf("EncryptFile() error = %v, want context.Canceled", err)
	}
}
