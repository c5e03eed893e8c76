// Package primitive defines the capability boundary between the confidential
// value protocol and the cryptographic primitives it relies on.
//
// The protocol only decides how and when primitives are invoked. Any
// [Adapter] satisfying the contracts below can be substituted, which lets
// callers plug in hardware-backed signers or test fakes.
package primitive

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cotinet/client-go/internal/crypto"
)

// Signer produces signatures over arbitrary messages on behalf of an account.
type Signer interface {
	Address() common.Address
	SignMessage(msg []byte) ([]byte, error)
}

// TxSigner signs 32-byte digests, such as transaction signing hashes.
// Signatures are R || S || V with V in {0, 1}.
type TxSigner interface {
	Address() common.Address
	SignHash(digest []byte) ([]byte, error)
}

// AccountSigner can both sign protocol messages and submit transactions.
type AccountSigner interface {
	Signer
	TxSigner
}

// RSAKeyPair is the asymmetric key pair generated for onboarding.
type RSAKeyPair struct {
	// PublicKey is a DER-encoded SubjectPublicKeyInfo.
	PublicKey []byte
	// PrivateKey is a DER-encoded PKCS #8 private key.
	PrivateKey []byte
}

// Clone returns a deep copy of the key pair. Nil stays nil.
func (kp *RSAKeyPair) Clone() *RSAKeyPair {
	if kp == nil {
		return nil
	}
	return &RSAKeyPair{
		PublicKey:  append([]byte(nil), kp.PublicKey...),
		PrivateKey: append([]byte(nil), kp.PrivateKey...),
	}
}

// Adapter exposes the primitive operations the protocol needs.
type Adapter interface {
	// AESEncrypt masks a plaintext of at most one block and returns the
	// ciphertext and the nonce it was masked with.
	AESEncrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error)
	// AESDecrypt reverses AESEncrypt given ciphertext || nonce.
	AESDecrypt(key, combined []byte) ([]byte, error)
	// GenerateRSAKeyPair creates a fresh onboarding key pair.
	GenerateRSAKeyPair() (*RSAKeyPair, error)
	// RSADecrypt decrypts a ciphertext addressed to the key pair.
	RSADecrypt(privateKey, ciphertext []byte) ([]byte, error)
	// Sign signs message with signer.
	Sign(message []byte, signer Signer) ([]byte, error)
	// CombineKeyShares derives the session key from two encrypted shares.
	CombineKeyShares(privateKey, share1, share2 []byte) ([]byte, error)
}

type defaultAdapter struct{}

// Default returns the built-in adapter: AES-128 block masking, RSA-2048
// OAEP-SHA-256, and XOR combination of key shares.
func Default() Adapter {
	return defaultAdapter{}
}

func (defaultAdapter) AESEncrypt(key, plaintext []byte) ([]byte, []byte, error) {
	return crypto.EncryptAES(key, plaintext)
}

func (defaultAdapter) AESDecrypt(key, combined []byte) ([]byte, error) {
	return crypto.DecryptCombined(key, combined)
}

func (defaultAdapter) GenerateRSAKeyPair() (*RSAKeyPair, error) {
	kp, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return &RSAKeyPair{PublicKey: kp.PublicKey, PrivateKey: kp.PrivateKey}, nil
}

func (defaultAdapter) RSADecrypt(privateKey, ciphertext []byte) ([]byte, error) {
	return crypto.DecryptRSA(privateKey, ciphertext)
}

func (defaultAdapter) Sign(message []byte, signer Signer) ([]byte, error) {
	return signer.SignMessage(message)
}

func (defaultAdapter) CombineKeyShares(privateKey, share1, share2 []byte) ([]byte, error) {
	return crypto.RecoverUserKey(privateKey, share1, share2)
}
