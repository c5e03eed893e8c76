package coti

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/cotinet/client-go/confidential"
	"github.com/cotinet/client-go/internal/codec"
	"github.com/cotinet/client-go/internal/crypto"
	"github.com/cotinet/client-go/internal/logging"
	"github.com/cotinet/client-go/onboard"
	"github.com/cotinet/client-go/primitive"
)

const keyFlight = "aes-key"

// Account encrypts and decrypts confidential values for one signing
// account and owns that account's key material.
//
// Account is safe for concurrent use. Concurrent calls that find no AES key
// share a single onboarding or recovery attempt.
type Account struct {
	signer   primitive.AccountSigner
	adapter  primitive.Adapter
	codec    *confidential.Codec
	protocol *onboard.Protocol
	logger   Logger

	flight singleflight.Group

	mu          sync.RWMutex
	info        OnboardInfo
	inflight    KeyState
	autoOnboard bool
}

// New creates an Account for signer. ch may be nil when the account is
// seeded with an AES key and never onboards.
func New(signer primitive.AccountSigner, ch onboard.Chain, opts ...Option) (*Account, error) {
	if signer == nil {
		return nil, ErrMissingSigner
	}

	cfg := &accountConfig{
		autoOnboard: true,
		adapter:     primitive.Default(),
		gasLimit:    onboard.DefaultGasLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.New("coti " + signer.Address().Hex()[:10])
	}
	if cfg.adapter == nil {
		cfg.adapter = primitive.Default()
	}

	a := &Account{
		signer:      signer,
		adapter:     cfg.adapter,
		codec:       confidential.NewCodec(cfg.adapter, signer),
		logger:      cfg.logger,
		autoOnboard: cfg.autoOnboard,
	}
	if cfg.info != nil {
		if err := validateAESKey(cfg.info.AESKey); err != nil {
			return nil, err
		}
		a.info = *cfg.info
	}

	if cfg.contract != (common.Address{}) {
		if ch == nil {
			return nil, ErrMissingChain
		}
		protoOpts := []onboard.Option{
			onboard.WithGasLimit(cfg.gasLimit),
			onboard.WithLogger(cfg.logger),
		}
		if cfg.confirmTimeout > 0 {
			protoOpts = append(protoOpts, onboard.WithConfirmTimeout(cfg.confirmTimeout))
		}
		p, err := onboard.New(ch, cfg.contract, cfg.adapter, protoOpts...)
		if err != nil {
			return nil, err
		}
		a.protocol = p
	}

	return a, nil
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.signer.Address()
}

// AutoOnboard reports whether missing keys are acquired on demand.
func (a *Account) AutoOnboard() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.autoOnboard
}

// EnableAutoOnboard makes encrypt and decrypt calls acquire a missing key.
func (a *Account) EnableAutoOnboard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoOnboard = true
}

// DisableAutoOnboard makes encrypt and decrypt calls fail with
// ErrKeyNotConfigured when no key is set.
func (a *Account) DisableAutoOnboard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoOnboard = false
}

// State returns the current key state.
func (a *Account) State() KeyState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch {
	case a.inflight != StateNoKey:
		return a.inflight
	case a.info.AESKey != nil:
		return StateKeyed
	}
	return StateNoKey
}

// OnboardInfo returns a copy of the account's key material.
func (a *Account) OnboardInfo() OnboardInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info.clone()
}

// SetOnboardInfo merges info into the key material. Nil fields leave the
// current value untouched.
func (a *Account) SetOnboardInfo(info OnboardInfo) error {
	if err := validateAESKey(info.AESKey); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.info.merge(info)
	return nil
}

// SetAESKey sets the AES key.
func (a *Account) SetAESKey(key []byte) error {
	if key == nil {
		return fmt.Errorf("%w: key is nil", ErrInvalidKeySize)
	}
	return a.SetOnboardInfo(OnboardInfo{AESKey: key})
}

// SetRSAKeyPair sets the RSA key pair used for recovery.
func (a *Account) SetRSAKeyPair(kp *primitive.RSAKeyPair) {
	_ = a.SetOnboardInfo(OnboardInfo{RSAKey: kp})
}

// SetOnboardTxHash sets the onboarding transaction used for recovery.
func (a *Account) SetOnboardTxHash(tx common.Hash) {
	_ = a.SetOnboardInfo(OnboardInfo{TxHash: &tx})
}

// ClearOnboardInfo drops all key material.
func (a *Account) ClearOnboardInfo() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.info = OnboardInfo{}
}

// GenerateOrRecoverAESKey makes sure the AES key is set. An existing key is
// kept; otherwise it is recovered from the stored RSA key pair and
// onboarding transaction when both are present, or obtained by a fresh
// onboarding. It runs regardless of the auto onboard setting.
//
// If ctx is done first the call returns, but a submitted onboarding keeps
// going and its key is stored when it is mined.
func (a *Account) GenerateOrRecoverAESKey(ctx context.Context) error {
	_, err := a.acquireKey(ctx)
	return err
}

// EncryptUint encrypts a value below 2^64 for the function sel of contract.
func (a *Account) EncryptUint(ctx context.Context, v *big.Int, contract common.Address, sel confidential.Selector) (*confidential.ItUint, error) {
	if !codec.FitsBits(v, 64) {
		return nil, &RangeError{Bits: 64, Value: v}
	}
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	return a.codec.EncryptUint(v, key, contract, sel)
}

// EncryptUint64 is EncryptUint for a native integer.
func (a *Account) EncryptUint64(ctx context.Context, v uint64, contract common.Address, sel confidential.Selector) (*confidential.ItUint, error) {
	return a.EncryptUint(ctx, new(big.Int).SetUint64(v), contract, sel)
}

// EncryptUint128 encrypts a value below 2^128 as two 64-bit words.
func (a *Account) EncryptUint128(ctx context.Context, v *big.Int, contract common.Address, sel confidential.Selector) (*confidential.ItUint128, error) {
	if !codec.FitsBits(v, 128) {
		return nil, &RangeError{Bits: 128, Value: v}
	}
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	return a.codec.EncryptUint128(v, key, contract, sel)
}

// EncryptUint256 encrypts a value below 2^256 as four 64-bit words.
func (a *Account) EncryptUint256(ctx context.Context, v *big.Int, contract common.Address, sel confidential.Selector) (*confidential.ItUint256, error) {
	if !codec.FitsBits(v, 256) {
		return nil, &RangeError{Bits: 256, Value: v}
	}
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	return a.codec.EncryptUint256(v, key, contract, sel)
}

// EncryptString encrypts s in 8-byte chunks.
func (a *Account) EncryptString(ctx context.Context, s string, contract common.Address, sel confidential.Selector) (*confidential.ItString, error) {
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	return a.codec.EncryptString(s, key, contract, sel)
}

// DecryptUint decrypts a scalar value handle.
func (a *Account) DecryptUint(ctx context.Context, ct *big.Int) (*big.Int, error) {
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	v, err := confidential.DecryptUint(a.adapter, ct, key)
	return v, wrapDecrypt("uint", err)
}

// DecryptUint128 decrypts a 128-bit value handle.
func (a *Account) DecryptUint128(ctx context.Context, ct confidential.CtUint128) (*big.Int, error) {
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	v, err := confidential.DecryptUint128(a.adapter, ct, key)
	return v, wrapDecrypt("uint128", err)
}

// DecryptUint256 decrypts a 256-bit value handle.
func (a *Account) DecryptUint256(ctx context.Context, ct confidential.CtUint256) (*big.Int, error) {
	key, err := a.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	v, err := confidential.DecryptUint256(a.adapter, ct, key)
	return v, wrapDecrypt("uint256", err)
}

// DecryptString decrypts a string value handle. Trailing NUL characters of
// the original string are not preserved.
func (a *Account) DecryptString(ctx context.Context, ct *confidential.CtString) (string, error) {
	key, err := a.sessionKey(ctx)
	if err != nil {
		return "", err
	}
	s, err := confidential.DecryptString(a.adapter, ct, key)
	return s, wrapDecrypt("string", err)
}

// sessionKey returns the AES key, acquiring it first when allowed. The
// returned slice is never modified and must not be modified by callers.
func (a *Account) sessionKey(ctx context.Context) ([]byte, error) {
	a.mu.RLock()
	key, auto := a.info.AESKey, a.autoOnboard
	a.mu.RUnlock()

	if key != nil {
		return key, nil
	}
	if !auto {
		return nil, ErrKeyNotConfigured
	}
	a.logger.Warn("AES key is not configured, onboarding or recovering")
	return a.acquireKey(ctx)
}

// acquireKey joins the in-flight key acquisition or starts one. The
// acquisition runs detached from ctx so that a submitted transaction is
// still recorded when the caller gives up.
func (a *Account) acquireKey(ctx context.Context) ([]byte, error) {
	ch := a.flight.DoChan(keyFlight, func() (interface{}, error) {
		return a.generateOrRecover(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Account) generateOrRecover(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	if a.info.AESKey != nil {
		key := a.info.AESKey
		a.mu.Unlock()
		return key, nil
	}
	if a.protocol == nil {
		a.mu.Unlock()
		return nil, ErrMissingContract
	}
	snapshot := a.info.clone()
	recovering := snapshot.canRecover()
	if recovering {
		a.inflight = StateRecovering
	} else {
		a.inflight = StateOnboarding
	}
	a.mu.Unlock()

	if recovering {
		key, err := a.protocol.Recover(ctx, *snapshot.TxHash, snapshot.RSAKey)

		a.mu.Lock()
		defer a.mu.Unlock()
		a.inflight = StateNoKey
		if err != nil {
			return nil, err
		}
		a.info.AESKey = key
		return key, nil
	}

	res, err := a.protocol.Onboard(ctx, a.signer)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight = StateNoKey
	if err != nil {
		return nil, err
	}
	txHash := res.TxHash
	a.info = OnboardInfo{AESKey: res.AESKey, RSAKey: res.RSAKey, TxHash: &txHash}
	return res.AESKey, nil
}

func validateAESKey(key []byte) error {
	if key != nil && len(key) != crypto.AESKeySize {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), crypto.AESKeySize)
	}
	return nil
}
