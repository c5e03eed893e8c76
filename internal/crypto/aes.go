package crypto

import (
	"crypto/aes"
	"fmt"
	"io"
)

// EncryptAES masks a plaintext of at most one block under an AES-128 key.
// The plaintext is left-padded with zeros to AESBlockSize and XORed with
// AES(key, r) for a fresh random block r.
// Returns: ciphertext (16 bytes), r (16 bytes)
func EncryptAES(key, plaintext []byte) (ciphertext, r []byte, err error) {
	if len(key) != AESKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}
	if len(plaintext) > AESBlockSize {
		return nil, nil, fmt.Errorf("%w: got %d bytes", ErrPlaintextTooLarge, len(plaintext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	r = make([]byte, AESBlockSize)
	if _, err := io.ReadFull(rng(), r); err != nil {
		return nil, nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	ciphertext = make([]byte, AESBlockSize)
	block.Encrypt(ciphertext, r)

	offset := AESBlockSize - len(plaintext)
	for i, b := range plaintext {
		ciphertext[offset+i] ^= b
	}
	return ciphertext, r, nil
}

// DecryptAES reverses EncryptAES. The result is always a full block; the
// caller strips the left padding it knows about.
func DecryptAES(key, r, ciphertext []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}
	if len(r) != AESBlockSize || len(ciphertext) != AESBlockSize {
		return nil, fmt.Errorf("%w: ciphertext %d bytes, nonce %d bytes", ErrInvalidCiphertextSize, len(ciphertext), len(r))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, AESBlockSize)
	block.Encrypt(plaintext, r)
	for i := range plaintext {
		plaintext[i] ^= ciphertext[i]
	}
	return plaintext, nil
}

// DecryptCombined decrypts the concatenation ciphertext || r produced by
// appending the two outputs of EncryptAES.
func DecryptCombined(key, combined []byte) ([]byte, error) {
	if len(combined) != CiphertextSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidCiphertextSize, len(combined), CiphertextSize)
	}
	return DecryptAES(key, combined[AESBlockSize:], combined[:AESBlockSize])
}
