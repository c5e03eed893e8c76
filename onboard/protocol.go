// Package onboard implements the on-chain key exchange that issues an
// account its AES key, and recovery of that key from a past exchange.
//
// Onboarding generates a fresh RSA key pair, signs the public key with the
// account, and submits it to the registration contract. The contract emits
// the account key as two shares encrypted to the RSA public key; their XOR
// is the AES key. Keeping the RSA key pair and the transaction hash allows
// the key to be recovered later without another transaction.
package onboard

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cotinet/client-go/internal/crypto"
	"github.com/cotinet/client-go/internal/logging"
	"github.com/cotinet/client-go/primitive"
)

const (
	// DefaultGasLimit is the gas limit of onboarding transactions.
	DefaultGasLimit uint64 = 12_000_000
	// DefaultConfirmTimeout bounds how long Onboard waits for confirmation.
	DefaultConfirmTimeout = 5 * time.Minute
)

// Chain is the chain access onboarding needs.
type Chain interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	Transact(ctx context.Context, from primitive.TxSigner, to common.Address, data []byte, gasLimit uint64) (common.Hash, error)
	WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error)
	TransactionReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error)
}

// Result is the outcome of a fresh onboarding.
type Result struct {
	AESKey []byte
	RSAKey *primitive.RSAKeyPair
	TxHash common.Hash
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithGasLimit sets the gas limit of the onboarding transaction.
func WithGasLimit(gas uint64) Option {
	return func(p *Protocol) {
		p.gasLimit = gas
	}
}

// WithConfirmTimeout bounds the wait for the onboarding transaction to be
// mined. Zero disables the bound.
func WithConfirmTimeout(d time.Duration) Option {
	return func(p *Protocol) {
		p.confirmTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Protocol) {
		if l != nil {
			p.logger = l
		}
	}
}

// Protocol runs onboarding and recovery against one registration contract.
type Protocol struct {
	chain          Chain
	contract       common.Address
	adapter        primitive.Adapter
	gasLimit       uint64
	confirmTimeout time.Duration
	logger         logging.Logger
}

// New returns a Protocol for the registration contract at contract.
// A nil adapter selects primitive.Default().
func New(chain Chain, contract common.Address, adapter primitive.Adapter, opts ...Option) (*Protocol, error) {
	if contract == (common.Address{}) {
		return nil, ErrMissingContract
	}
	if adapter == nil {
		adapter = primitive.Default()
	}
	p := &Protocol{
		chain:          chain,
		contract:       contract,
		adapter:        adapter,
		gasLimit:       DefaultGasLimit,
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logging.New("onboard"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Contract returns the registration contract address.
func (p *Protocol) Contract() common.Address {
	return p.contract
}

// Onboard performs a fresh key exchange for signer's account.
//
// The account must hold a positive native balance; otherwise
// ErrInsufficientFunds is returned before anything is submitted. Every
// other failure is an *OnboardingError. No key material is returned on
// failure.
func (p *Protocol) Onboard(ctx context.Context, signer primitive.AccountSigner) (*Result, error) {
	account := signer.Address()
	p.logger.Infof(1, "onboarding %s via %s", account.Hex(), p.contract.Hex())

	balance, err := p.chain.BalanceAt(ctx, account)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageBalance, Err: err})
	}
	if balance == nil || balance.Sign() <= 0 {
		err := fmt.Errorf("%w: account %s has zero balance", ErrInsufficientFunds, account.Hex())
		p.logger.Error(err)
		return nil, err
	}

	rsaKey, err := p.adapter.GenerateRSAKeyPair()
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageKeygen, Err: err})
	}
	sig, err := p.adapter.Sign(rsaKey.PublicKey, signer)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageSign, Err: err})
	}
	data, err := PackOnboardAccount(rsaKey.PublicKey, sig)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageSubmit, Err: err})
	}

	txHash, err := p.chain.Transact(ctx, signer, p.contract, data, p.gasLimit)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageSubmit, Err: err})
	}
	p.logger.Infof(1, "onboarding tx %s submitted", txHash.Hex())

	waitCtx := ctx
	if p.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.confirmTimeout)
		defer cancel()
	}
	receipt, err := p.chain.WaitMined(waitCtx, txHash)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageConfirm, TxHash: txHash, Err: err})
	}

	decoded, err := DecodeReceipt(receipt)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageDecode, TxHash: txHash, Err: err})
	}
	if decoded.SingleShare() {
		return nil, p.fail(&OnboardingError{Stage: StageDecode, TxHash: txHash, Err: fmt.Errorf("%w: expected two key shares", ErrNoOnboardLog)})
	}

	key, err := p.adapter.CombineKeyShares(rsaKey.PrivateKey, decoded.UserKeyShare1, decoded.UserKeyShare2)
	if err != nil {
		return nil, p.fail(&OnboardingError{Stage: StageCombine, TxHash: txHash, Err: err})
	}

	p.logger.Infof(0, "onboarded %s in tx %s (key %s)", account.Hex(), txHash.Hex(), crypto.Fingerprint(key))
	return &Result{AESKey: key, RSAKey: rsaKey, TxHash: txHash}, nil
}

// Recover rebuilds the account key from a past onboarding transaction and
// the RSA key pair generated for it. Failures are *RecoveryError.
func (p *Protocol) Recover(ctx context.Context, txHash common.Hash, rsaKey *primitive.RSAKeyPair) ([]byte, error) {
	if rsaKey == nil || len(rsaKey.PrivateKey) == 0 {
		return nil, p.fail(&RecoveryError{TxHash: txHash, Err: fmt.Errorf("RSA private key is required")})
	}
	p.logger.Infof(1, "recovering key from tx %s", txHash.Hex())

	receipt, err := p.chain.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, p.fail(&RecoveryError{TxHash: txHash, Err: err})
	}
	decoded, err := DecodeReceipt(receipt)
	if err != nil {
		return nil, p.fail(&RecoveryError{TxHash: txHash, Err: err})
	}

	var key []byte
	if decoded.SingleShare() {
		key, err = p.adapter.RSADecrypt(rsaKey.PrivateKey, decoded.UserKeyShare1)
	} else {
		key, err = p.adapter.CombineKeyShares(rsaKey.PrivateKey, decoded.UserKeyShare1, decoded.UserKeyShare2)
	}
	if err != nil {
		return nil, p.fail(&RecoveryError{TxHash: txHash, Err: err})
	}
	if len(key) != crypto.AESKeySize {
		return nil, p.fail(&RecoveryError{TxHash: txHash, Err: fmt.Errorf("%w: recovered %d bytes", crypto.ErrInvalidKeySize, len(key))})
	}

	p.logger.Infof(0, "recovered key from tx %s (key %s)", txHash.Hex(), crypto.Fingerprint(key))
	return key, nil
}

func (p *Protocol) fail(err error) error {
	p.logger.Error(err)
	return err
}
