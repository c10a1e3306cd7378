package chunking

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	DefaultChunkSize = 1024 * 1024     // 1MB default chunk size
	MinChunkSize     = 4 * 1024        // 4KB minimum chunk size
	MaxChunkSize     = 8 * 1024 * 1024 // 8MB maximum chunk size
)

// ErrLimitExceeded is returned by ReadAll when the input is larger than the
// configured limit.
var ErrLimitExceeded = errors.New("input exceeds size limit")

// ChunkReader caps every Read at chunkSize bytes so whole-file reads proceed
// in bounded steps and can stop as soon as a size limit is crossed.
type ChunkReader struct {
	reader    io.Reader
	chunkSize int
}

func NewChunkReader(reader io.Reader, chunkSize int) (*ChunkReader, error) {
	if err := ValidateChunkSize(chunkSize); err != nil {
		return nil, err
	}

	return &ChunkReader{
		reader:    reader,
		chunkSize: chunkSize,
	}, nil
}

// ValidateChunkSize reports whether size is within [MinChunkSize, MaxChunkSize].
func ValidateChunkSize(size int) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return fmt.Errorf("invalid chunk size: must be between %d and %d bytes", MinChunkSize, MaxChunkSize)
	}
	return nil
}

func (r *ChunkReader) Read(p []byte) (n int, err error) {
	if len(p) > r.chunkSize {
		p = p[:r.chunkSize]
	}
	return r.reader.Read(p)
}

// ReadAll reads to EOF. A limit <= 0 disables the size check; sizeHint
// preallocates when the caller knows the expected size.
func (r *ChunkReader) ReadAll(limit int64, sizeHint int64) ([]byte, error) {
	var buf bytes.Buffer
	if sizeHint > 0 && (limit <= 0 || sizeHint <= limit) {
		buf.Grow(int(sizeHint))
	}

	chunk := make([]byte, r.chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if limit > 0 && int64(buf.Len()+n) > limit {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrLimitExceeded, limit)
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk: %w", err)
		}
	}
}
