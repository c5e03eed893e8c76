package crypto

import (
	"fmt"
	"io"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// SigningKey is a secp256k1 private key that produces recoverable
// signatures in R || S || V form with V in {0, 1}.
type SigningKey struct {
	key *secp256k1.PrivateKey
}

// ParseSigningKey parses a 32-byte big-endian secp256k1 scalar.
func ParseSigningKey(b []byte) (*SigningKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidPrivateKey, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return &SigningKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// GenerateSigningKey creates a random secp256k1 key.
func GenerateSigningKey() (*SigningKey, error) {
	buf := make([]byte, 32)
	defer Wipe(buf)
	for {
		if _, err := io.ReadFull(rng(), buf); err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
		if k, err := ParseSigningKey(buf); err == nil {
			return k, nil
		}
	}
}

// Bytes returns the 32-byte private scalar.
func (k *SigningKey) Bytes() []byte {
	return k.key.Serialize()
}

// Address returns the account address of the key.
func (k *SigningKey) Address() [AddressSize]byte {
	return PubkeyToAddress(k.key.PubKey())
}

// SignHash signs a 32-byte digest.
func (k *SigningKey) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != HashSize {
		return nil, fmt.Errorf("hash is required to be exactly %d bytes (%d)", HashSize, len(hash))
	}
	compact := ecdsa.SignCompact(k.key, hash, false)

	// compact is [27 + recid] || R || S
	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// PubkeyToAddress derives the account address of a public key: the last
// 20 bytes of the Keccak-256 hash of its uncompressed X || Y encoding.
func PubkeyToAddress(pub *secp256k1.PublicKey) [AddressSize]byte {
	var addr [AddressSize]byte
	hash := Keccak256(pub.SerializeUncompressed()[1:])
	copy(addr[:], hash[HashSize-AddressSize:])
	return addr
}

// RecoverAddress returns the address that produced sig over hash. V may be
// encoded as {0, 1} or {27, 28}.
func RecoverAddress(hash, sig []byte) ([AddressSize]byte, error) {
	var addr [AddressSize]byte
	if len(hash) != HashSize {
		return addr, fmt.Errorf("%w: hash must be %d bytes", ErrInvalidSignature, HashSize)
	}
	if len(sig) != SignatureSize {
		return addr, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(sig), SignatureSize)
	}

	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return addr, fmt.Errorf("%w: invalid recovery id %d", ErrInvalidSignature, sig[64])
	}

	compact := make([]byte, SignatureSize)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PubkeyToAddress(pub), nil
}

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// PersonalHash returns the EIP-191 digest used by personal_sign.
func PersonalHash(msg []byte) []byte {
	prefix := personalMessagePrefix + strconv.Itoa(len(msg))
	return Keccak256([]byte(prefix), msg)
}
