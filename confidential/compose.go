package confidential

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var mask64 = new(big.Int).SetUint64(^uint64(0))

var mask128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// SplitUint128 splits v into its high and low 64-bit words.
func SplitUint128(v *big.Int) (high, low *big.Int, err error) {
	if err := checkRange(v, 128); err != nil {
		return nil, nil, err
	}
	return new(big.Int).Rsh(v, 64), new(big.Int).And(v, mask64), nil
}

// JoinUint128 returns high<<64 | low.
func JoinUint128(high, low *big.Int) *big.Int {
	v := new(big.Int).Lsh(high, 64)
	return v.Or(v, low)
}

// SplitUint256 splits v into its high and low 128-bit halves.
func SplitUint256(v *big.Int) (high, low *big.Int, err error) {
	if err := checkRange(v, 256); err != nil {
		return nil, nil, err
	}
	return new(big.Int).Rsh(v, 128), new(big.Int).And(v, mask128), nil
}

// JoinUint256 returns high<<128 | low.
func JoinUint256(high, low *big.Int) *big.Int {
	v := new(big.Int).Lsh(high, 128)
	return v.Or(v, low)
}

// EncryptUint128 encrypts a value below 2^128 as two 64-bit words.
func (c *Codec) EncryptUint128(pt *big.Int, key []byte, contract common.Address, sel Selector) (*ItUint128, error) {
	high, low, err := SplitUint128(pt)
	if err != nil {
		return nil, err
	}
	hi, err := c.EncryptUint(high, key, contract, sel)
	if err != nil {
		return nil, fmt.Errorf("high word: %w", err)
	}
	lo, err := c.EncryptUint(low, key, contract, sel)
	if err != nil {
		return nil, fmt.Errorf("low word: %w", err)
	}

	return &ItUint128{
		Ciphertext: CtUint128{High: hi.Ciphertext, Low: lo.Ciphertext},
		Signature:  [2][]byte{hi.Signature, lo.Signature},
	}, nil
}

// DecryptUint128 decrypts both words and recomposes them high, low.
func DecryptUint128(adapter Decrypter, ct CtUint128, key []byte) (*big.Int, error) {
	high, err := DecryptUint(adapter, ct.High, key)
	if err != nil {
		return nil, fmt.Errorf("high word: %w", err)
	}
	low, err := DecryptUint(adapter, ct.Low, key)
	if err != nil {
		return nil, fmt.Errorf("low word: %w", err)
	}
	return JoinUint128(high, low), nil
}

// EncryptUint256 encrypts a value below 2^256 as two 128-bit halves.
func (c *Codec) EncryptUint256(pt *big.Int, key []byte, contract common.Address, sel Selector) (*ItUint256, error) {
	high, low, err := SplitUint256(pt)
	if err != nil {
		return nil, err
	}
	hi, err := c.EncryptUint128(high, key, contract, sel)
	if err != nil {
		return nil, fmt.Errorf("high half: %w", err)
	}
	lo, err := c.EncryptUint128(low, key, contract, sel)
	if err != nil {
		return nil, fmt.Errorf("low half: %w", err)
	}

	return &ItUint256{
		Ciphertext: CtUint256{High: hi.Ciphertext, Low: lo.Ciphertext},
		Signature:  [2][2][]byte{hi.Signature, lo.Signature},
	}, nil
}

// DecryptUint256 decrypts both halves and recomposes them high, low.
func DecryptUint256(adapter Decrypter, ct CtUint256, key []byte) (*big.Int, error) {
	high, err := DecryptUint128(adapter, ct.High, key)
	if err != nil {
		return nil, fmt.Errorf("high half: %w", err)
	}
	low, err := DecryptUint128(adapter, ct.Low, key)
	if err != nil {
		return nil, fmt.Errorf("low half: %w", err)
	}
	return JoinUint256(high, low), nil
}
