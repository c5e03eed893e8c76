// Package codec implements the fixed-width binary encoding used for
// confidential values: 64-bit scalars as 8-byte big-endian blocks, byte
// chunking for strings, and the tightly packed binding message that input
// tokens are signed over.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// ScalarSize is the width in bytes of an encoded scalar.
	ScalarSize = 8
	// WordSize is the width in bytes of an EVM word.
	WordSize = 32
	// AddressSize is the width in bytes of an account or contract address.
	AddressSize = 20
	// SelectorSize is the width in bytes of a function selector.
	SelectorSize = 4
	// BindingSize is the length of a packed binding message.
	BindingSize = AddressSize + AddressSize + SelectorSize + WordSize
)

// ErrRange is returned when a value does not fit the requested width.
var ErrRange = errors.New("value out of range")

// MaxScalar is the largest value EncodeScalar accepts (2^64 - 1).
var MaxScalar = new(big.Int).SetUint64(^uint64(0))

// FitsBits reports whether v is non-negative and strictly below 2^bits.
func FitsBits(v *big.Int, bits int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= bits
}

// EncodeScalar encodes v as an 8-byte big-endian buffer.
func EncodeScalar(v *big.Int) ([]byte, error) {
	if !FitsBits(v, ScalarSize*8) {
		return nil, fmt.Errorf("%w: scalar must be in [0, 2^64), got %v", ErrRange, v)
	}
	return v.FillBytes(make([]byte, ScalarSize)), nil
}

// DecodeScalar interprets b as a big-endian unsigned integer of any length.
func DecodeScalar(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// ChunkBytes splits data into size-byte chunks, zero-padding the last chunk
// on the right. Empty input yields no chunks.
//
// Padding cannot be told apart from trailing zero bytes in data.
func ChunkBytes(data []byte, size int) [][]byte {
	if size <= 0 {
		panic(fmt.Sprintf("codec: invalid chunk size %d", size))
	}
	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		chunk := make([]byte, size)
		copy(chunk, data[start:min(start+size, len(data))])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// PadLeft returns b left-padded with zeros to size bytes. Inputs already at
// least size bytes long are returned unchanged.
func PadLeft(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// TrimTrailingZeros strips every trailing 0x00 byte from b.
func TrimTrailingZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

// Strip0x removes a leading "0x" or "0X" prefix.
func Strip0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// DecodeHex decodes a hex string with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(Strip0x(s))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

// PackBinding builds the binding message for an input token: the tight
// concatenation account || contract || selector || ct, with ct as a 32-byte
// big-endian word.
func PackBinding(account, contract [AddressSize]byte, selector [SelectorSize]byte, ct *big.Int) ([]byte, error) {
	if !FitsBits(ct, WordSize*8) {
		return nil, fmt.Errorf("%w: ciphertext must fit 256 bits", ErrRange)
	}
	msg := make([]byte, 0, BindingSize)
	msg = append(msg, account[:]...)
	msg = append(msg, contract[:]...)
	msg = append(msg, selector[:]...)
	msg = append(msg, ct.FillBytes(make([]byte, WordSize))...)
	return msg, nil
}
