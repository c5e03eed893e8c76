package confidential

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cotinet/client-go/internal/codec"
	"github.com/cotinet/client-go/primitive"
)

// Decrypter is the part of primitive.Adapter needed to open value handles.
type Decrypter interface {
	AESDecrypt(key, combined []byte) ([]byte, error)
}

// Codec builds input tokens for one signing account.
type Codec struct {
	adapter primitive.Adapter
	signer  primitive.Signer
}

// NewCodec returns a Codec that encrypts with adapter and signs as signer.
// A nil adapter selects primitive.Default().
func NewCodec(adapter primitive.Adapter, signer primitive.Signer) *Codec {
	if adapter == nil {
		adapter = primitive.Default()
	}
	return &Codec{adapter: adapter, signer: signer}
}

// BindingMessage returns the message an input token's signature covers:
// account || contract || selector || ciphertext, tightly packed.
func BindingMessage(account, contract common.Address, sel Selector, ct *big.Int) ([]byte, error) {
	return codec.PackBinding(account, contract, sel, ct)
}

// EncryptUint encrypts a value below 2^64 and signs it for contract and sel.
func (c *Codec) EncryptUint(pt *big.Int, key []byte, contract common.Address, sel Selector) (*ItUint, error) {
	if err := checkRange(pt, codec.ScalarSize*8); err != nil {
		return nil, err
	}
	encoded, err := codec.EncodeScalar(pt)
	if err != nil {
		return nil, err
	}

	ct, nonce, err := c.adapter.AESEncrypt(key, encoded)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	combined := make([]byte, 0, len(ct)+len(nonce))
	combined = append(combined, ct...)
	combined = append(combined, nonce...)
	ctInt := new(big.Int).SetBytes(combined)

	msg, err := BindingMessage(c.signer.Address(), contract, sel, ctInt)
	if err != nil {
		return nil, err
	}
	sig, err := c.adapter.Sign(msg, c.signer)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	return &ItUint{Ciphertext: ctInt, Signature: sig}, nil
}

// DecryptUint decrypts a scalar value handle.
func DecryptUint(adapter Decrypter, ct *big.Int, key []byte) (*big.Int, error) {
	if !codec.FitsBits(ct, codec.WordSize*8) {
		return nil, fmt.Errorf("%w: ciphertext must be a 256-bit unsigned integer", ErrDecryptionFailed)
	}
	pt, err := adapter.AESDecrypt(key, ct.FillBytes(make([]byte, codec.WordSize)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	v := codec.DecodeScalar(pt)
	if !codec.FitsBits(v, codec.ScalarSize*8) {
		return nil, fmt.Errorf("%w: plaintext exceeds 64 bits", ErrDecryptionFailed)
	}
	return v, nil
}

// EncryptString encrypts s chunk by chunk. Every chunk is signed with the
// same contract and selector.
func (c *Codec) EncryptString(s string, key []byte, contract common.Address, sel Selector) (*ItString, error) {
	chunks := codec.ChunkBytes([]byte(s), codec.ScalarSize)

	it := &ItString{
		Ciphertext: CtString{Value: make([]*big.Int, 0, len(chunks))},
		Signature:  make([][]byte, 0, len(chunks)),
	}
	for i, chunk := range chunks {
		tok, err := c.EncryptUint(codec.DecodeScalar(chunk), key, contract, sel)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		it.Ciphertext.Value = append(it.Ciphertext.Value, tok.Ciphertext)
		it.Signature = append(it.Signature, tok.Signature)
	}
	return it, nil
}

// DecryptString decrypts a string value handle. Trailing zero bytes are
// stripped; invalid UTF-8 is reported as ErrDecryptionFailed.
func DecryptString(adapter Decrypter, ct *CtString, key []byte) (string, error) {
	if ct == nil {
		return "", fmt.Errorf("%w: nil string handle", ErrDecryptionFailed)
	}

	buf := make([]byte, 0, len(ct.Value)*codec.ScalarSize)
	for i, v := range ct.Value {
		word, err := DecryptUint(adapter, v, key)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}
		encoded, err := codec.EncodeScalar(word)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}
		buf = append(buf, encoded...)
	}

	buf = codec.TrimTrailingZeros(buf)
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecryptionFailed)
	}
	return string(buf), nil
}
