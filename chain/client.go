// Package chain is a go-ethereum backed implementation of the chain access
// onboarding needs: balances, signed legacy transactions, and receipts.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cotinet/client-go/internal/logging"
	"github.com/cotinet/client-go/primitive"
)

// ErrInsufficientGas is returned when a transaction's gas limit is below
// the node's estimate.
var ErrInsufficientGas = errors.New("not enough gas for tx")

// Backend is the subset of *ethclient.Client the Client uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval sets the delay before the second receipt poll.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.poll.Interval = d
	}
}

// WithMaxPollInterval caps the delay between receipt polls.
func WithMaxPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.poll.MaxInterval = d
	}
}

// WithPollMultiplier sets the backoff multiplier between receipt polls.
func WithPollMultiplier(m float64) Option {
	return func(c *Client) {
		c.poll.Multiplier = m
	}
}

// WithPollJitter sets the jitter factor (0.0 to 1.0) of receipt polls.
func WithPollJitter(j float64) Option {
	return func(c *Client) {
		c.poll.Jitter = j
	}
}

// WithGasPrice fixes the gas price instead of asking the node.
func WithGasPrice(wei *big.Int) Option {
	return func(c *Client) {
		c.gasPrice = wei
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client submits transactions and reads receipts through a Backend.
type Client struct {
	backend  Backend
	poll     PollConfig
	gasPrice *big.Int
	logger   logging.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient wraps backend.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		poll:    DefaultPollConfig(),
		logger:  logging.New("chain"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a JSON-RPC endpoint.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return NewClient(ec, opts...), nil
}

// DialNetwork connects to a preset network.
func DialNetwork(ctx context.Context, n Network, opts ...Option) (*Client, error) {
	return Dial(ctx, n.URL(), opts...)
}

// Close closes the backend connection if it has one.
func (c *Client) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

// ChainID returns the chain id, cached after the first successful call.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

// BalanceAt returns the latest native balance of account in wei.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

// NativeBalance returns the balance of account formatted in ether.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (string, error) {
	balance, err := c.BalanceAt(ctx, account)
	if err != nil {
		return "", err
	}
	return FormatEther(balance), nil
}

// Transact signs and sends a legacy transaction calling to with data.
// The node's gas estimate must not exceed gasLimit.
func (c *Client) Transact(ctx context.Context, from primitive.TxSigner, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	sender := from.Address()

	nonce, err := c.backend.PendingNonceAt(ctx, sender)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce of %s: %w", sender.Hex(), err)
	}
	gasPrice := c.gasPrice
	if gasPrice == nil {
		if gasPrice, err = c.backend.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("gas price: %w", err)
		}
	}

	if err := c.validateGasEstimation(ctx, ethereum.CallMsg{
		From:     sender,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	}); err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	})
	signer := types.LatestSignerForChainID(chainID)
	sig, err := from.SignHash(signer.Hash(tx).Bytes())
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	c.logger.Infof(1, "sent tx %s from %s nonce %d", signed.Hash().Hex(), sender.Hex(), nonce)
	return signed.Hash(), nil
}

func (c *Client) validateGasEstimation(ctx context.Context, msg ethereum.CallMsg) error {
	estimate, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		return fmt.Errorf("estimate gas: %w", err)
	}
	if estimate == 0 || estimate > msg.Gas {
		return fmt.Errorf("%w: provided %d, needed %d", ErrInsufficientGas, msg.Gas, estimate)
	}
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound.
func (c *Client) TransactionReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	return c.backend.TransactionReceipt(ctx, tx)
}

// WaitMined polls until tx has a receipt or ctx is done.
func (c *Client) WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	errCount := 0
	for attempt := 0; ; attempt++ {
		receipt, err := c.backend.TransactionReceipt(ctx, tx)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			errCount = 0
			c.logger.Infof(2, "tx %s not yet mined", tx.Hex())
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errCount++
			if errCount > c.poll.MaxErrors {
				return nil, fmt.Errorf("receipt of %s: %w", tx.Hex(), err)
			}
			c.logger.Warnf("receipt of %s: %v (retrying)", tx.Hex(), err)
		}

		if err := c.poll.Wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
}
