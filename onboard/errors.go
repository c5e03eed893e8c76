package onboard

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientFunds is returned when the account cannot pay for the
	// onboarding transaction.
	ErrInsufficientFunds = errors.New("insufficient funds to onboard account")

	// ErrOnboardingFailed is returned when the onboarding exchange fails.
	ErrOnboardingFailed = errors.New("onboarding failed")

	// ErrRecoveryFailed is returned when the account key cannot be recovered
	// from a past onboarding transaction.
	ErrRecoveryFailed = errors.New("recovery failed")

	// ErrMissingContract is returned when no registration contract is configured.
	ErrMissingContract = errors.New("onboard contract address is required")
)

// Onboarding stages reported by OnboardingError.
const (
	StageBalance = "balance"
	StageKeygen  = "keygen"
	StageSign    = "sign"
	StageSubmit  = "submit"
	StageConfirm = "confirm"
	StageDecode  = "decode"
	StageCombine = "combine"
)

// OnboardingError reports the stage at which a fresh onboarding failed.
type OnboardingError struct {
	Stage string
	// TxHash is set once the transaction has been submitted.
	TxHash common.Hash
	Err    error
}

func (e *OnboardingError) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("onboarding failed at %s (tx %s): %v", e.Stage, e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("onboarding failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *OnboardingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *OnboardingError) Is(target error) bool {
	return target == ErrOnboardingFailed
}

// CotiError implements the client error marker interface.
func (e *OnboardingError) CotiError() {}

// RecoveryError reports a failure to recover the account key from a past
// onboarding transaction.
type RecoveryError struct {
	TxHash common.Hash
	Err    error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recovery from tx %s failed: %v", e.TxHash.Hex(), e.Err)
}

// Unwrap returns the underlying error.
func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *RecoveryError) Is(target error) bool {
	return target == ErrRecoveryFailed
}

// CotiError implements the client error marker interface.
func (e *RecoveryError) CotiError() {}
