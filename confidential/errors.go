package confidential

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cotinet/client-go/internal/codec"
)

var (
	// ErrRange is returned when a plaintext does not fit the requested width.
	ErrRange = codec.ErrRange

	// ErrDecryptionFailed is returned when a value handle cannot be decrypted.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// RangeError reports a plaintext outside [0, 2^Bits).
type RangeError struct {
	Bits  int
	Value *big.Int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value out of range: %v does not fit in %d bits", e.Value, e.Bits)
}

// Is implements errors.Is for ErrRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

func checkRange(v *big.Int, bits int) error {
	if !codec.FitsBits(v, bits) {
		return &RangeError{Bits: bits, Value: v}
	}
	return nil
}

// CotiError implements the client error marker interface.
func (e *RangeError) CotiError() {}
