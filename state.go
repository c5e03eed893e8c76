package coti

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cotinet/client-go/primitive"
)

// KeyState is the key acquisition state of an Account.
type KeyState int

const (
	// StateNoKey means no AES key is available.
	StateNoKey KeyState = iota
	// StateOnboarding means a fresh onboarding exchange is in flight.
	StateOnboarding
	// StateRecovering means the key is being recovered from a stored
	// onboarding transaction.
	StateRecovering
	// StateKeyed means the AES key is available.
	StateKeyed
)

func (s KeyState) String() string {
	switch s {
	case StateNoKey:
		return "no-key"
	case StateOnboarding:
		return "onboarding"
	case StateRecovering:
		return "recovering"
	case StateKeyed:
		return "keyed"
	}
	return "unknown"
}

// OnboardInfo is the key material of an account. Nil fields are unset.
//
// The AES key is only ever obtained from a fresh onboarding or recovered
// from RSAKey together with TxHash.
type OnboardInfo struct {
	AESKey []byte
	RSAKey *primitive.RSAKeyPair
	TxHash *common.Hash
}

func (o OnboardInfo) clone() OnboardInfo {
	out := OnboardInfo{RSAKey: o.RSAKey.Clone()}
	if o.AESKey != nil {
		out.AESKey = append([]byte(nil), o.AESKey...)
	}
	if o.TxHash != nil {
		h := *o.TxHash
		out.TxHash = &h
	}
	return out
}

// merge overwrites the fields set in other.
func (o *OnboardInfo) merge(other OnboardInfo) {
	other = other.clone()
	if other.AESKey != nil {
		o.AESKey = other.AESKey
	}
	if other.RSAKey != nil {
		o.RSAKey = other.RSAKey
	}
	if other.TxHash != nil {
		o.TxHash = other.TxHash
	}
}

// canRecover reports whether the AES key can be rebuilt without a new
// onboarding transaction.
func (o OnboardInfo) canRecover() bool {
	return o.RSAKey != nil && len(o.RSAKey.PrivateKey) > 0 && o.TxHash != nil
}
