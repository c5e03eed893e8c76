package crypto

import "errors"

var (
	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrPlaintextTooLarge is returned when a plaintext exceeds one AES block.
	ErrPlaintextTooLarge = errors.New("plaintext larger than one block")

	// ErrInvalidCiphertextSize is returned when the ciphertext size is invalid.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidPrivateKey is returned when a private key cannot be parsed.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidPublicKey is returned when a public key cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSignature is returned when a signature is malformed or
	// does not recover to a public key.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrShareMismatch is returned when two key shares differ in length.
	ErrShareMismatch = errors.New("key share length mismatch")
)
