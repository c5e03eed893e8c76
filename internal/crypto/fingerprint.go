package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a short hex fingerprint of key material, safe to log.
//
// It hashes with BLAKE3 and truncates to FingerprintSize bytes.
func Fingerprint(key []byte) string {
	sum := blake3.Sum256(key)
	return hex.EncodeToString(sum[:FingerprintSize])
}
