package coti

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"

	"github.com/cotinet/client-go/internal/crypto"
	"github.com/cotinet/client-go/primitive"
)

// ExportVersion is the current export format version.
const ExportVersion = 1

// ExportedOnboardInfo contains the key material needed to restore an
// account without onboarding again.
// WARNING: this contains the AES key and the RSA private key - handle securely.
type ExportedOnboardInfo struct {
	// Version is the export format version. MUST be 1.
	Version int `cbor:"version"`
	// Address is the hex address of the account the material belongs to.
	Address string `cbor:"address"`
	// AESKey is the 16-byte account key, if known.
	AESKey []byte `cbor:"aesKey,omitempty"`
	// RSAPublicKey and RSAPrivateKey are the onboarding key pair, if kept.
	RSAPublicKey  []byte `cbor:"rsaPublicKey,omitempty"`
	RSAPrivateKey []byte `cbor:"rsaPrivateKey,omitempty"`
	// TxHash is the onboarding transaction, if known.
	TxHash []byte `cbor:"txHash,omitempty"`
	// ExportedAt is the export timestamp. Informational only.
	ExportedAt time.Time `cbor:"exportedAt"`
}

// Validate checks that the exported data is well formed.
func (e *ExportedOnboardInfo) Validate() error {
	if e.Version != ExportVersion {
		return fmt.Errorf("%w: unsupported version %d, expected %d", ErrInvalidImportData, e.Version, ExportVersion)
	}
	if e.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidImportData)
	}
	if !common.IsHexAddress(e.Address) {
		return fmt.Errorf("%w: invalid address %q", ErrInvalidImportData, e.Address)
	}
	if e.AESKey != nil && len(e.AESKey) != crypto.AESKeySize {
		return fmt.Errorf("%w: aesKey size %d, expected %d", ErrInvalidImportData, len(e.AESKey), crypto.AESKeySize)
	}
	if (e.RSAPublicKey == nil) != (e.RSAPrivateKey == nil) {
		return fmt.Errorf("%w: rsaPublicKey and rsaPrivateKey must be set together", ErrInvalidImportData)
	}
	if e.RSAPrivateKey != nil && !crypto.ValidateKeypair(&crypto.Keypair{PublicKey: e.RSAPublicKey, PrivateKey: e.RSAPrivateKey}) {
		return fmt.Errorf("%w: RSA key pair does not parse or does not match", ErrInvalidImportData)
	}
	if e.TxHash != nil && len(e.TxHash) != common.HashLength {
		return fmt.Errorf("%w: txHash size %d, expected %d", ErrInvalidImportData, len(e.TxHash), common.HashLength)
	}
	if e.AESKey == nil && (e.RSAPrivateKey == nil || e.TxHash == nil) {
		return fmt.Errorf("%w: need aesKey, or an RSA key pair with its txHash", ErrInvalidImportData)
	}
	return nil
}

// exportedOnboardInfo drops the Binary(Un)Marshaler methods so cbor encodes
// the struct fields.
type exportedOnboardInfo ExportedOnboardInfo

// MarshalBinary encodes the export as CBOR.
func (e *ExportedOnboardInfo) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*exportedOnboardInfo)(e))
}

// UnmarshalBinary decodes a CBOR export and validates it.
func (e *ExportedOnboardInfo) UnmarshalBinary(data []byte) error {
	var out exportedOnboardInfo
	if err := cbor.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	exported := ExportedOnboardInfo(out)
	if err := exported.Validate(); err != nil {
		return err
	}
	*e = exported
	return nil
}

// Export returns the account's key material.
func (a *Account) Export() *ExportedOnboardInfo {
	info := a.OnboardInfo()
	exported := &ExportedOnboardInfo{
		Version:    ExportVersion,
		Address:    a.Address().Hex(),
		AESKey:     info.AESKey,
		ExportedAt: time.Now().UTC(),
	}
	if info.RSAKey != nil {
		exported.RSAPublicKey = info.RSAKey.PublicKey
		exported.RSAPrivateKey = info.RSAKey.PrivateKey
	}
	if info.TxHash != nil {
		exported.TxHash = info.TxHash.Bytes()
	}
	return exported
}

// Import merges exported key material into the account. The export must
// belong to the same address.
func (a *Account) Import(data *ExportedOnboardInfo) error {
	if data == nil {
		return fmt.Errorf("%w: nil export", ErrInvalidImportData)
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if common.HexToAddress(data.Address) != a.Address() {
		return fmt.Errorf("%w: export belongs to %s, not %s", ErrInvalidImportData, data.Address, a.Address().Hex())
	}

	var info OnboardInfo
	info.AESKey = data.AESKey
	if data.RSAPrivateKey != nil {
		info.RSAKey = &primitive.RSAKeyPair{PublicKey: data.RSAPublicKey, PrivateKey: data.RSAPrivateKey}
	}
	if data.TxHash != nil {
		h := common.BytesToHash(data.TxHash)
		info.TxHash = &h
	}
	return a.SetOnboardInfo(info)
}
