package confidential_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotinet/client-go/confidential"
	"github.com/cotinet/client-go/primitive"
)

const devKeyHex = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testSelector = confidential.SelectorOf("setValue((uint256,bytes))")
)

type fixture struct {
	codec  *confidential.Codec
	signer *primitive.KeySigner
	key    []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := primitive.NewKeySigner(devKeyHex)
	require.NoError(t, err)
	key := make([]byte, 16)
	_, err = rand.Read(key)
	require.NoError(t, err)
	return &fixture{
		codec:  confidential.NewCodec(nil, signer),
		signer: signer,
		key:    key,
	}
}

func randomBits(t *testing.T, bits int) *big.Int {
	t.Helper()
	v, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
	require.NoError(t, err)
	return v
}

func pow2(n uint) *big.Int { return new(big.Int).Lsh(big.NewInt(1), n) }

func TestUint_RoundTrip(t *testing.T) {
	f := newFixture(t)

	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(42),
		new(big.Int).Sub(pow2(64), big.NewInt(1)),
	}
	for i := 0; i < 32; i++ {
		values = append(values, randomBits(t, 64))
	}

	for _, v := range values {
		it, err := f.codec.EncryptUint(v, f.key, testContract, testSelector)
		require.NoError(t, err)

		got, err := confidential.DecryptUint(primitive.Default(), it.Ciphertext, f.key)
		require.NoError(t, err)
		assert.Zero(t, v.Cmp(got), "want %v, got %v", v, got)
	}
}

func TestUint_SignatureBindsContext(t *testing.T) {
	f := newFixture(t)

	it, err := f.codec.EncryptUint(big.NewInt(7), f.key, testContract, testSelector)
	require.NoError(t, err)

	msg, err := confidential.BindingMessage(f.signer.Address(), testContract, testSelector, it.Ciphertext)
	require.NoError(t, err)
	require.Len(t, msg, 76)

	addr, err := primitive.RecoverAddress(msg, it.Signature, false)
	require.NoError(t, err)
	assert.Equal(t, f.signer.Address(), addr)

	otherSel := confidential.SelectorOf("other((uint256,bytes))")
	replay, err := confidential.BindingMessage(f.signer.Address(), testContract, otherSel, it.Ciphertext)
	require.NoError(t, err)
	addr, err = primitive.RecoverAddress(replay, it.Signature, false)
	if err == nil {
		assert.NotEqual(t, f.signer.Address(), addr)
	}
}

func TestUint_OutOfRange(t *testing.T) {
	f := newFixture(t)

	for _, v := range []*big.Int{pow2(64), big.NewInt(-1), pow2(100)} {
		_, err := f.codec.EncryptUint(v, f.key, testContract, testSelector)
		require.Error(t, err)
		assert.ErrorIs(t, err, confidential.ErrRange)

		var rangeErr *confidential.RangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, 64, rangeErr.Bits)
	}
}

func TestUint_InvalidKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.codec.EncryptUint(big.NewInt(1), []byte("short"), testContract, testSelector)
	assert.Error(t, err)

	_, err = confidential.DecryptUint(primitive.Default(), big.NewInt(1), []byte("short"))
	assert.ErrorIs(t, err, confidential.ErrDecryptionFailed)
}

func TestDecryptUint_MalformedHandle(t *testing.T) {
	f := newFixture(t)

	for _, ct := range []*big.Int{nil, big.NewInt(-5), pow2(256)} {
		_, err := confidential.DecryptUint(primitive.Default(), ct, f.key)
		assert.ErrorIs(t, err, confidential.ErrDecryptionFailed)
	}
}

func TestDecryptUint_WrongKey(t *testing.T) {
	f := newFixture(t)
	it, err := f.codec.EncryptUint(big.NewInt(99), f.key, testContract, testSelector)
	require.NoError(t, err)

	other := bytes.Repeat([]byte{0x01}, 16)
	got, err := confidential.DecryptUint(primitive.Default(), it.Ciphertext, other)
	if err == nil {
		assert.NotZero(t, big.NewInt(99).Cmp(got))
	} else {
		assert.ErrorIs(t, err, confidential.ErrDecryptionFailed)
	}
}

func TestString_RoundTrip(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		in     string
		chunks int
	}{
		{"empty", "", 0},
		{"short", "abc", 1},
		{"exact chunk", "abcdefgh", 1},
		{"two exact chunks", "abcdefghijklmnop", 2},
		{"spill", "abcdefghi", 2},
		{"multibyte", "héllo wörld ✓", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := f.codec.EncryptString(tt.in, f.key, testContract, testSelector)
			require.NoError(t, err)
			require.Len(t, it.Ciphertext.Value, tt.chunks)
			require.Len(t, it.Signature, tt.chunks)

			got, err := confidential.DecryptString(primitive.Default(), &it.Ciphertext, f.key)
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestString_TrailingNULIsLost(t *testing.T) {
	f := newFixture(t)

	it, err := f.codec.EncryptString("abc\x00", f.key, testContract, testSelector)
	require.NoError(t, err)

	got, err := confidential.DecryptString(primitive.Default(), &it.Ciphertext, f.key)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestString_ChunkSignatures(t *testing.T) {
	f := newFixture(t)

	it, err := f.codec.EncryptString("0123456789abcdef!", f.key, testContract, testSelector)
	require.NoError(t, err)

	for i, ct := range it.Ciphertext.Value {
		msg, err := confidential.BindingMessage(f.signer.Address(), testContract, testSelector, ct)
		require.NoError(t, err)
		addr, err := primitive.RecoverAddress(msg, it.Signature[i], false)
		require.NoError(t, err)
		assert.Equal(t, f.signer.Address(), addr, "chunk %d", i)
	}
}

func TestString_ChunkOrderMatters(t *testing.T) {
	f := newFixture(t)

	it, err := f.codec.EncryptString("firstblksecond!!", f.key, testContract, testSelector)
	require.NoError(t, err)

	swapped := confidential.CtString{Value: []*big.Int{it.Ciphertext.Value[1], it.Ciphertext.Value[0]}}
	got, err := confidential.DecryptString(primitive.Default(), &swapped, f.key)
	require.NoError(t, err)
	assert.Equal(t, "second!!firstblk", got)
}

func TestDecryptString_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := confidential.DecryptString(primitive.Default(), nil, f.key)
	assert.ErrorIs(t, err, confidential.ErrDecryptionFailed)

	// 0xff is never valid UTF-8.
	it, err := f.codec.EncryptUint(new(big.Int).SetUint64(0xff00000000000000), f.key, testContract, testSelector)
	require.NoError(t, err)
	_, err = confidential.DecryptString(primitive.Default(), &confidential.CtString{Value: []*big.Int{it.Ciphertext}}, f.key)
	assert.ErrorIs(t, err, confidential.ErrDecryptionFailed)
}

func TestUint128_RoundTrip(t *testing.T) {
	f := newFixture(t)

	values := []*big.Int{
		big.NewInt(0),
		new(big.Int).Sub(pow2(64), big.NewInt(1)),
		pow2(64),
		new(big.Int).Sub(pow2(128), big.NewInt(1)),
	}
	for i := 0; i < 8; i++ {
		values = append(values, randomBits(t, 128))
	}

	for _, v := range values {
		it, err := f.codec.EncryptUint128(v, f.key, testContract, testSelector)
		require.NoError(t, err)

		got, err := confidential.DecryptUint128(primitive.Default(), it.Ciphertext, f.key)
		require.NoError(t, err)
		assert.Zero(t, v.Cmp(got), "want %v, got %v", v, got)
	}
}

func TestUint128_WordOrder(t *testing.T) {
	f := newFixture(t)

	v := new(big.Int).Add(pow2(64), big.NewInt(2)) // high=1, low=2
	it, err := f.codec.EncryptUint128(v, f.key, testContract, testSelector)
	require.NoError(t, err)

	swapped := confidential.CtUint128{High: it.Ciphertext.Low, Low: it.Ciphertext.High}
	got, err := confidential.DecryptUint128(primitive.Default(), swapped, f.key)
	require.NoError(t, err)
	assert.Zero(t, new(big.Int).Add(new(big.Int).Lsh(big.NewInt(2), 64), big.NewInt(1)).Cmp(got))
	assert.NotZero(t, v.Cmp(got))
}

func TestUint128_OutOfRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.codec.EncryptUint128(pow2(128), f.key, testContract, testSelector)
	assert.ErrorIs(t, err, confidential.ErrRange)
}

func TestUint256_RoundTrip(t *testing.T) {
	f := newFixture(t)

	values := []*big.Int{
		big.NewInt(0),
		pow2(128),
		new(big.Int).Sub(pow2(256), big.NewInt(1)),
		randomBits(t, 256),
		randomBits(t, 256),
	}

	for _, v := range values {
		it, err := f.codec.EncryptUint256(v, f.key, testContract, testSelector)
		require.NoError(t, err)

		got, err := confidential.DecryptUint256(primitive.Default(), it.Ciphertext, f.key)
		require.NoError(t, err)
		assert.Zero(t, v.Cmp(got), "want %v, got %v", v, got)
	}

	_, err := f.codec.EncryptUint256(pow2(256), f.key, testContract, testSelector)
	assert.ErrorIs(t, err, confidential.ErrRange)
}

func TestSplitJoin(t *testing.T) {
	v, ok := new(big.Int).SetString("0102030405060708090a0b0c0d0e0f10", 16)
	require.True(t, ok)

	high, low, err := confidential.SplitUint128(v)
	require.NoError(t, err)
	assert.Equal(t, "102030405060708", high.Text(16))
	assert.Equal(t, "90a0b0c0d0e0f10", low.Text(16))
	assert.Zero(t, v.Cmp(confidential.JoinUint128(high, low)))

	w := confidential.JoinUint256(v, big.NewInt(1))
	h, l, err := confidential.SplitUint256(w)
	require.NoError(t, err)
	assert.Zero(t, v.Cmp(h))
	assert.Equal(t, int64(1), l.Int64())
}

func TestSelector(t *testing.T) {
	sel := confidential.SelectorOf("transfer(address,uint256)")
	assert.Equal(t, "0xa9059cbb", sel.String())

	parsed, err := confidential.ParseSelector("0xa9059cbb")
	require.NoError(t, err)
	assert.Equal(t, sel, parsed)

	_, err = confidential.ParseSelector("0xa9059c")
	assert.Error(t, err)
	_, err = confidential.ParseSelector("nothex!!")
	assert.Error(t, err)
}

// recordingAdapter checks that the codec only talks to the adapter boundary.
type recordingAdapter struct {
	primitive.Adapter
	signed [][]byte
}

func (r *recordingAdapter) Sign(message []byte, signer primitive.Signer) ([]byte, error) {
	r.signed = append(r.signed, append([]byte(nil), message...))
	return r.Adapter.Sign(message, signer)
}

func TestCodec_UsesAdapter(t *testing.T) {
	f := newFixture(t)
	rec := &recordingAdapter{Adapter: primitive.Default()}
	c := confidential.NewCodec(rec, f.signer)

	it, err := c.EncryptUint128(big.NewInt(5), f.key, testContract, testSelector)
	require.NoError(t, err)
	require.Len(t, rec.signed, 2)

	want, err := confidential.BindingMessage(f.signer.Address(), testContract, testSelector, it.Ciphertext.High)
	require.NoError(t, err)
	assert.Equal(t, want, rec.signed[0])
}
