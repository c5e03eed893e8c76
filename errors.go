package coti

import (
	"errors"
	"fmt"

	"github.com/cotinet/client-go/confidential"
	"github.com/cotinet/client-go/internal/crypto"
	"github.com/cotinet/client-go/onboard"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrRange is returned when a plaintext does not fit the requested width.
	ErrRange = confidential.ErrRange

	// ErrKeyNotConfigured is returned when an operation needs the AES key,
	// none is set, and auto onboarding is disabled.
	ErrKeyNotConfigured = errors.New("AES key is not configured and auto onboard is off")

	// ErrInsufficientFunds is returned when the account has no balance to
	// pay for onboarding.
	ErrInsufficientFunds = onboard.ErrInsufficientFunds

	// ErrOnboardingFailed is returned when the onboarding exchange fails.
	ErrOnboardingFailed = onboard.ErrOnboardingFailed

	// ErrRecoveryFailed is returned when the AES key cannot be recovered
	// from the stored onboarding transaction.
	ErrRecoveryFailed = onboard.ErrRecoveryFailed

	// ErrMissingContract is returned when onboarding is needed but no
	// registration contract is configured.
	ErrMissingContract = onboard.ErrMissingContract

	// ErrDecryptionFailed is returned when a value handle cannot be decrypted.
	ErrDecryptionFailed = confidential.ErrDecryptionFailed

	// ErrMissingChain is returned when an onboard contract is configured
	// without a chain to reach it through.
	ErrMissingChain = errors.New("chain is required to onboard")

	// ErrMissingSigner is returned when an Account is created without a signer.
	ErrMissingSigner = errors.New("signer is required")

	// ErrInvalidKeySize is returned when an AES key is not 16 bytes.
	ErrInvalidKeySize = crypto.ErrInvalidKeySize

	// ErrInvalidImportData is returned when imported onboard info is invalid.
	ErrInvalidImportData = errors.New("invalid import data")
)

// Error is implemented by all typed client errors.
type Error interface {
	error
	CotiError() // marker method
}

// RangeError reports a plaintext outside the representable width.
type RangeError = confidential.RangeError

// OnboardingError reports the stage at which onboarding failed.
type OnboardingError = onboard.OnboardingError

// RecoveryError reports a failed recovery from an onboarding transaction.
type RecoveryError = onboard.RecoveryError

// DecryptionError represents a failure to decrypt a value handle.
type DecryptionError struct {
	Kind string // "uint", "uint128", "uint256", "string"
	Err  error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decrypt %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// CotiError implements the Error interface.
func (e *DecryptionError) CotiError() {}

func wrapDecrypt(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &DecryptionError{Kind: kind, Err: err}
}
