package primitive

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cotinet/client-go/internal/codec"
	"github.com/cotinet/client-go/internal/crypto"
)

// KeySigner signs with a locally held private key. Messages are signed as
// the raw Keccak-256 digest of the message; V is 0 or 1.
type KeySigner struct {
	key  *crypto.SigningKey
	addr common.Address
}

// NewKeySigner parses a hex-encoded secp256k1 private key, with or without
// a 0x prefix.
func NewKeySigner(privateKeyHex string) (*KeySigner, error) {
	b, err := codec.DecodeHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrInvalidPrivateKey, err)
	}
	defer crypto.Wipe(b)

	key, err := crypto.ParseSigningKey(b)
	if err != nil {
		return nil, err
	}
	return &KeySigner{key: key, addr: key.Address()}, nil
}

// GenerateKeySigner creates a signer for a fresh random key.
func GenerateKeySigner() (*KeySigner, error) {
	key, err := crypto.GenerateSigningKey()
	if err != nil {
		return nil, err
	}
	return &KeySigner{key: key, addr: key.Address()}, nil
}

// Address returns the signer's account address.
func (s *KeySigner) Address() common.Address { return s.addr }

// SignMessage signs keccak256(msg).
func (s *KeySigner) SignMessage(msg []byte) ([]byte, error) {
	return s.key.SignHash(crypto.Keccak256(msg))
}

// SignHash signs a 32-byte digest.
func (s *KeySigner) SignHash(digest []byte) ([]byte, error) {
	return s.key.SignHash(digest)
}

// MessageSigner signs messages the way wallets do for personal_sign
// (EIP-191); V is 27 or 28. Transaction digests are signed raw.
type MessageSigner struct {
	KeySigner
}

// NewMessageSigner parses a hex-encoded secp256k1 private key.
func NewMessageSigner(privateKeyHex string) (*MessageSigner, error) {
	ks, err := NewKeySigner(privateKeyHex)
	if err != nil {
		return nil, err
	}
	return &MessageSigner{KeySigner: *ks}, nil
}

// SignMessage signs the EIP-191 digest of msg.
func (s *MessageSigner) SignMessage(msg []byte) ([]byte, error) {
	sig, err := s.key.SignHash(crypto.PersonalHash(msg))
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RecoverAddress returns the account that signed message. When personal is
// set the message is hashed as EIP-191, otherwise as plain Keccak-256.
func RecoverAddress(message, signature []byte, personal bool) (common.Address, error) {
	var hash []byte
	if personal {
		hash = crypto.PersonalHash(message)
	} else {
		hash = crypto.Keccak256(message)
	}
	addr, err := crypto.RecoverAddress(hash, signature)
	if err != nil {
		return common.Address{}, err
	}
	return common.Address(addr), nil
}
