package confidential

import "math/big"

// ItUint is an input token for a value of at most 64 bits.
type ItUint struct {
	Ciphertext *big.Int
	Signature  []byte
}

// CtString is a value handle for a string: one ciphertext per 8-byte chunk.
type CtString struct {
	Value []*big.Int
}

// ItString is an input token for a string. Signature[i] signs Value[i].
type ItString struct {
	Ciphertext CtString
	Signature  [][]byte
}

// CtUint128 is a value handle for a 128-bit value.
type CtUint128 struct {
	High *big.Int
	Low  *big.Int
}

// ItUint128 is an input token for a 128-bit value. Signatures are ordered
// high, low.
type ItUint128 struct {
	Ciphertext CtUint128
	Signature  [2][]byte
}

// CtUint256 is a value handle for a 256-bit value.
type CtUint256 struct {
	High CtUint128
	Low  CtUint128
}

// ItUint256 is an input token for a 256-bit value. Signature[0] covers the
// high half and Signature[1] the low half, each ordered high, low.
type ItUint256 struct {
	Ciphertext CtUint256
	Signature  [2][2][]byte
}
