package crypto

const (
	// AESKeySize is the size of an account AES key in bytes.
	AESKeySize = 16
	// AESBlockSize is the AES block size in bytes.
	AESBlockSize = 16
	// CiphertextSize is the size of a masked block followed by its nonce.
	CiphertextSize = AESBlockSize * 2

	// RSAKeyBits is the modulus size of onboarding key pairs.
	RSAKeyBits = 2048

	// SignatureSize is the size of a recoverable signature: R || S || V.
	SignatureSize = 65
	// HashSize is the size of a Keccak-256 digest.
	HashSize = 32
	// AddressSize is the size of an account address.
	AddressSize = 20

	// FingerprintSize is the number of BLAKE3 digest bytes kept in a fingerprint.
	FingerprintSize = 8
)

// personalMessagePrefix is prepended to messages signed with personal_sign.
const personalMessagePrefix = "\x19Ethereum Signed Message:\n"
