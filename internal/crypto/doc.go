// Package crypto provides the cryptographic primitives behind confidential
// values and account onboarding.
//
// # Algorithm Suite
//
//   - AES-128 block masking: a value of at most 16 bytes is left-padded with
//     zeros and XORed with AES-ECB(key, r) for a fresh random block r. The
//     ciphertext is the 16-byte masked block followed by r.
//
//   - RSA-2048 with OAEP-SHA-256: the asymmetric key pair an account
//     registers during onboarding. The registration contract returns two
//     RSA-encrypted key shares whose XOR is the account's AES key.
//
//   - secp256k1 ECDSA over Keccak-256: recoverable signatures binding input
//     tokens to an account, contract, and function, and signing onboarding
//     requests and transactions.
//
//   - BLAKE3: short fingerprints of key material for logs.
//
// # Security Notes
//
// The masking scheme is not authenticated. Integrity of an input token comes
// from the signature over the binding message, which the contract verifies.
// Decrypting with the wrong key yields garbage rather than an error.
//
// Keep AES keys and RSA private keys secret. Use [Fingerprint] when a key
// must be identified in logs and [Wipe] to clear buffers that are no longer
// needed.
package crypto
