// Package chaintest provides an in-memory chain with a registration
// contract, for tests that exercise onboarding without a node.
package chaintest

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cotinet/client-go/internal/crypto"
	"github.com/cotinet/client-go/onboard"
	"github.com/cotinet/client-go/primitive"
)

// ContractAddress is where the in-memory registration contract lives.
var ContractAddress = common.HexToAddress("0x000000000000000000000000000000000000c071")

var (
	// ErrGasFunds is returned by Transact for accounts without balance.
	ErrGasFunds = errors.New("insufficient funds for gas")
	// ErrBadSignature is returned when the signed public key does not
	// recover to the sender.
	ErrBadSignature = errors.New("public key signature does not match sender")
)

var (
	twoShareABI    = mustParse(onboard.ABI)
	singleShareABI = mustParse(onboard.SingleShareEventABI)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Chain is an in-memory implementation of onboard.Chain. The registration
// contract issues each account one stable AES key.
type Chain struct {
	mu sync.Mutex

	balances map[common.Address]*big.Int
	keys     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
	nonces   map[common.Address]uint64

	submissions int
	calls       int
	block       uint64

	gate        chan struct{}
	submitted   chan common.Hash
	revert      bool
	singleShare bool
	submitErr   error
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{
		balances:  make(map[common.Address]*big.Int),
		keys:      make(map[common.Address][]byte),
		receipts:  make(map[common.Hash]*types.Receipt),
		nonces:    make(map[common.Address]uint64),
		submitted: make(chan common.Hash, 64),
	}
}

// Fund sets the native balance of account.
func (c *Chain) Fund(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = new(big.Int).Set(wei)
}

// SetKey fixes the AES key the contract issues to account.
func (c *Chain) SetKey(account common.Address, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[account] = append([]byte(nil), key...)
}

// Key returns the AES key issued to account, if any.
func (c *Chain) Key(account common.Address) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.keys[account]...)
}

// HoldConfirmations makes WaitMined block until the returned function is
// called.
func (c *Chain) HoldConfirmations() (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate := make(chan struct{})
	c.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Submitted delivers the hash of every onboarding transaction accepted.
func (c *Chain) Submitted() <-chan common.Hash {
	return c.submitted
}

// RevertOnboarding makes subsequent onboarding transactions fail on chain.
func (c *Chain) RevertOnboarding(revert bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revert = revert
}

// EmitSingleShare makes the contract emit the whole key as one share.
func (c *Chain) EmitSingleShare(single bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singleShare = single
}

// FailSubmissions makes Transact return err until cleared with nil.
func (c *Chain) FailSubmissions(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErr = err
}

// Submissions returns the number of onboarding transactions accepted.
func (c *Chain) Submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissions
}

// Calls returns the number of chain calls made through onboard.Chain.
func (c *Chain) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// BalanceAt implements onboard.Chain.
func (c *Chain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// Transact implements onboard.Chain. Only onboardAccount calls to
// ContractAddress are understood.
func (c *Chain) Transact(ctx context.Context, from primitive.TxSigner, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.submitErr != nil {
		return common.Hash{}, c.submitErr
	}
	sender := from.Address()
	if b := c.balances[sender]; b == nil || b.Sign() <= 0 {
		return common.Hash{}, ErrGasFunds
	}
	if to != ContractAddress {
		return common.Hash{}, fmt.Errorf("no contract at %s", to.Hex())
	}
	publicKey, sig, err := onboard.UnpackOnboardAccount(data)
	if err != nil {
		return common.Hash{}, err
	}

	nonce := c.nonces[sender]
	c.nonces[sender] = nonce + 1
	txHash := txHashOf(sender, nonce)

	// The sender signs the transaction digest like a real node would
	// require; the signature itself is not kept.
	if _, err := from.SignHash(txHash.Bytes()); err != nil {
		return common.Hash{}, err
	}

	c.block++
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusFailed,
		TxHash:      txHash,
		BlockNumber: new(big.Int).SetUint64(c.block),
		GasUsed:     min(gasLimit, 500_000),
	}
	if !c.revert {
		if err := verifySignature(sender, publicKey, sig); err != nil {
			return common.Hash{}, err
		}
		log, err := c.issueKey(sender, publicKey)
		if err != nil {
			return common.Hash{}, err
		}
		log.TxHash = txHash
		log.BlockNumber = c.block
		receipt.Status = types.ReceiptStatusSuccessful
		receipt.Logs = []*types.Log{log}
	}

	c.receipts[txHash] = receipt
	c.submissions++
	select {
	case c.submitted <- txHash:
	default:
	}
	return txHash, nil
}

// WaitMined implements onboard.Chain.
func (c *Chain) WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	c.calls++
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.receipt(tx)
}

// TransactionReceipt implements onboard.Chain.
func (c *Chain) TransactionReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.receipt(tx)
}

func (c *Chain) receipt(tx common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[tx]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// issueKey encrypts the account key to publicKey and builds the log.
// Callers hold c.mu.
func (c *Chain) issueKey(account common.Address, publicKey []byte) (*types.Log, error) {
	key, ok := c.keys[account]
	if !ok {
		key = make([]byte, crypto.AESKeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		c.keys[account] = key
	}

	topics := []common.Hash{{}, common.BytesToHash(account.Bytes())}
	var data []byte
	if c.singleShare {
		share, err := crypto.EncryptRSA(publicKey, key)
		if err != nil {
			return nil, err
		}
		event := singleShareABI.Events["AccountOnboarded"]
		topics[0] = event.ID
		if data, err = event.Inputs.NonIndexed().Pack(share); err != nil {
			return nil, err
		}
	} else {
		mask := make([]byte, len(key))
		if _, err := rand.Read(mask); err != nil {
			return nil, err
		}
		masked := make([]byte, len(key))
		for i := range key {
			masked[i] = key[i] ^ mask[i]
		}
		share1, err := crypto.EncryptRSA(publicKey, mask)
		if err != nil {
			return nil, err
		}
		share2, err := crypto.EncryptRSA(publicKey, masked)
		if err != nil {
			return nil, err
		}
		event := twoShareABI.Events["AccountOnboarded"]
		topics[0] = event.ID
		if data, err = event.Inputs.NonIndexed().Pack(share1, share2); err != nil {
			return nil, err
		}
	}

	return &types.Log{Address: ContractAddress, Topics: topics, Data: data}, nil
}

// verifySignature accepts raw Keccak-256 signatures (V in {0, 1}) and
// personal_sign signatures (V in {27, 28}).
func verifySignature(sender common.Address, publicKey, sig []byte) error {
	if len(sig) != crypto.SignatureSize {
		return ErrBadSignature
	}
	personal := sig[64] >= 27
	addr, err := primitive.RecoverAddress(publicKey, sig, personal)
	if err != nil || addr != sender {
		return ErrBadSignature
	}
	return nil
}

func txHashOf(sender common.Address, nonce uint64) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return common.BytesToHash(crypto.Keccak256(sender.Bytes(), n[:]))
}
