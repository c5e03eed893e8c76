package coti

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cotinet/client-go/internal/logging"
	"github.com/cotinet/client-go/primitive"
)

// Logger is the logging interface used by the client. Entries default to
// klog; pass WithLogger to route them elsewhere.
type Logger = logging.Logger

// accountConfig holds configuration for an Account.
type accountConfig struct {
	autoOnboard    bool
	contract       common.Address
	info           *OnboardInfo
	adapter        primitive.Adapter
	logger         Logger
	gasLimit       uint64
	confirmTimeout time.Duration
}

// Option configures an Account.
type Option func(*accountConfig)

// WithAutoOnboard sets whether encrypt and decrypt calls onboard or recover
// the AES key on demand. Default: true
func WithAutoOnboard(enabled bool) Option {
	return func(c *accountConfig) {
		c.autoOnboard = enabled
	}
}

// WithOnboardContract sets the address of the account registration contract.
// Onboarding and recovery fail with ErrMissingContract without it.
func WithOnboardContract(addr common.Address) Option {
	return func(c *accountConfig) {
		c.contract = addr
	}
}

// WithOnboardInfo seeds the account with previously obtained key material.
func WithOnboardInfo(info OnboardInfo) Option {
	return func(c *accountConfig) {
		cp := info.clone()
		c.info = &cp
	}
}

// WithPrimitives replaces the cryptographic primitives.
// Default: primitive.Default()
func WithPrimitives(adapter primitive.Adapter) Option {
	return func(c *accountConfig) {
		c.adapter = adapter
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *accountConfig) {
		c.logger = l
	}
}

// WithGasLimit sets the gas limit of the onboarding transaction.
// Default: 12,000,000
func WithGasLimit(gas uint64) Option {
	return func(c *accountConfig) {
		c.gasLimit = gas
	}
}

// WithConfirmTimeout bounds the wait for the onboarding transaction to be
// mined. Default: 5 minutes
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *accountConfig) {
		c.confirmTimeout = d
	}
}
