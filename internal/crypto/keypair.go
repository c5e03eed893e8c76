package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
)

// randReader is the random source used for key generation and nonces.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

func rng() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// Keypair is an RSA key pair used for the onboarding key exchange.
type Keypair struct {
	// PublicKey is the DER-encoded SubjectPublicKeyInfo.
	PublicKey []byte
	// PrivateKey is the DER-encoded PKCS #8 private key.
	PrivateKey []byte
}

// GenerateKeypair creates a new RSA-2048 key pair.
func GenerateKeypair() (*Keypair, error) {
	priv, err := rsa.GenerateKey(rng(), RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return &Keypair{PublicKey: pubBytes, PrivateKey: privBytes}, nil
}

// ValidateKeypair reports whether both halves parse and belong together.
func ValidateKeypair(keypair *Keypair) bool {
	if keypair == nil {
		return false
	}
	priv, err := parseRSAPrivateKey(keypair.PrivateKey)
	if err != nil {
		return false
	}
	pub, err := parseRSAPublicKey(keypair.PublicKey)
	if err != nil {
		return false
	}
	return priv.PublicKey.Equal(pub)
}

// EncryptRSA encrypts msg to a DER-encoded RSA public key with OAEP-SHA-256.
func EncryptRSA(publicKey, msg []byte) ([]byte, error) {
	pub, err := parseRSAPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rng(), pub, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return ct, nil
}

// DecryptRSA decrypts an OAEP-SHA-256 ciphertext with a PKCS #8 private key.
func DecryptRSA(privateKey, ciphertext []byte) ([]byte, error) {
	priv, err := parseRSAPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}

// RecoverUserKey decrypts both key shares with the private key and XORs
// them into the account AES key.
func RecoverUserKey(privateKey, share1, share2 []byte) ([]byte, error) {
	a, err := DecryptRSA(privateKey, share1)
	if err != nil {
		return nil, fmt.Errorf("share 1: %w", err)
	}
	defer Wipe(a)

	b, err := DecryptRSA(privateKey, share2)
	if err != nil {
		return nil, fmt.Errorf("share 2: %w", err)
	}
	defer Wipe(b)

	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d and %d bytes", ErrShareMismatch, len(a), len(b))
	}
	if len(a) != AESKeySize {
		return nil, fmt.Errorf("%w: combined key is %d bytes", ErrInvalidKeySize, len(a))
	}

	key := make([]byte, len(a))
	for i := range key {
		key[i] = a[i] ^ b[i]
	}
	return key, nil
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
	}
	return priv, nil
}

func parseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	return pub, nil
}
