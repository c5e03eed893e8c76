package confidential

import (
	"encoding/hex"
	"fmt"

	"github.com/cotinet/client-go/internal/codec"
	"github.com/cotinet/client-go/internal/crypto"
)

// Selector is a 4-byte function selector.
type Selector [codec.SelectorSize]byte

// ParseSelector parses a hex selector such as "0xa9059cbb".
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	b, err := codec.DecodeHex(s)
	if err != nil {
		return sel, err
	}
	if len(b) != codec.SelectorSize {
		return sel, fmt.Errorf("selector must be %d bytes, got %d", codec.SelectorSize, len(b))
	}
	copy(sel[:], b)
	return sel, nil
}

// SelectorOf returns the selector of a canonical function signature, for
// example "transfer(address,(uint256,bytes))".
func SelectorOf(signature string) Selector {
	var sel Selector
	copy(sel[:], crypto.Keccak256([]byte(signature)))
	return sel
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}
