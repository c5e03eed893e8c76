package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key and its address.
const (
	devKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddrHex = "f39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

func devKey(t *testing.T) *SigningKey {
	t.Helper()
	b, err := hex.DecodeString(devKeyHex)
	require.NoError(t, err)
	k, err := ParseSigningKey(b)
	require.NoError(t, err)
	return k
}

func TestSigningKey_Address(t *testing.T) {
	addr := devKey(t).Address()
	assert.Equal(t, devAddrHex, hex.EncodeToString(addr[:]))
}

func TestParseSigningKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"short", make([]byte, 31)},
		{"zero", make([]byte, 32)},
		{"overflow", bytes.Repeat([]byte{0xff}, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSigningKey(tt.in)
			assert.ErrorIs(t, err, ErrInvalidPrivateKey)
		})
	}
}

func TestSignHash_Recover(t *testing.T) {
	k := devKey(t)
	hash := Keccak256([]byte("binding"))

	sig, err := k.SignHash(hash)
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)
	assert.LessOrEqual(t, sig[64], byte(1))

	addr, err := RecoverAddress(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, k.Address(), addr)

	// 27/28 encoded V recovers the same signer.
	legacy := append([]byte{}, sig...)
	legacy[64] += 27
	addr, err = RecoverAddress(hash, legacy)
	require.NoError(t, err)
	assert.Equal(t, k.Address(), addr)
}

func TestSignHash_InvalidHash(t *testing.T) {
	_, err := devKey(t).SignHash([]byte("short"))
	assert.Error(t, err)
}

func TestRecoverAddress_Invalid(t *testing.T) {
	hash := Keccak256([]byte("x"))

	_, err := RecoverAddress(hash, make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	sig := make([]byte, SignatureSize)
	sig[64] = 5
	_, err = RecoverAddress(hash, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRecoverAddress_TamperedMessage(t *testing.T) {
	k := devKey(t)
	sig, err := k.SignHash(Keccak256([]byte("a")))
	require.NoError(t, err)

	addr, err := RecoverAddress(Keccak256([]byte("b")), sig)
	if err == nil {
		assert.NotEqual(t, k.Address(), addr)
	}
}

func TestKeccak256(t *testing.T) {
	// keccak256("") is a fixed constant.
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256()))
	assert.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func TestPersonalHash(t *testing.T) {
	msg := []byte("hello")
	want := Keccak256([]byte("\x19Ethereum Signed Message:\n5hello"))
	assert.Equal(t, want, PersonalHash(msg))
}

func TestGenerateSigningKey(t *testing.T) {
	k1, err := GenerateSigningKey()
	require.NoError(t, err)
	k2, err := GenerateSigningKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1.Address(), k2.Address())

	again, err := ParseSigningKey(k1.Bytes())
	require.NoError(t, err)
	assert.Equal(t, k1.Address(), again.Address())
}
