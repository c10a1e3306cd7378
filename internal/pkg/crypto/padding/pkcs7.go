// filecrypt/internal/pkg/crypto/padding/pkcs7.go
package padding

// BlockSize is the AES block size.
const BlockSize = 16

// Pad appends PKCS#7 padding. A full block of padding is added when data is
// already aligned, so the pad length is always in [1, BlockSize].
func Pad(data []byte) []byte {
	n := BlockSize - len(data)%BlockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// Unpad strips PKCS#7 padding using the last byte only.
//
// Unpad is permissive: empty input, a last byte of 0, a last byte greater than
// BlockSize, or a pad length longer than the data are passed through
// unchanged rather than rejected. The padding bytes other than the last are
// not checked. A wrong password therefore usually yields garbage, not an error.
func Unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	k := int(data[len(data)-1])
	if k < 1 || k > BlockSize || k > len(data) {
		return data
	}
	return data[:len(data)-k]
}
