package mocks

// CountingReader yields next, next+1, next+2, ... so salts and IVs are
// predictable in tests.
type CountingReader struct {
	next byte
}

func NewCountingReader(start byte) *CountingReader {
	return &CountingReader{next: start}
}

func (r *CountingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

// ErrorReader always fails.
type ErrorReader struct {
	Err error
}

func (r ErrorReader) Read(p []byte) (int, error) {
	return 0, r.Err
}
