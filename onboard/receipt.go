package onboard

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNoOnboardLog is returned when a receipt carries no AccountOnboarded log.
var ErrNoOnboardLog = errors.New("no AccountOnboarded log in receipt")

// ErrTransactionReverted is returned for receipts with a failed status.
var ErrTransactionReverted = errors.New("transaction reverted")

// Receipt is the decoded result of an onboarding transaction.
type Receipt struct {
	// Account is the onboarded account.
	Account common.Address
	// UserKeyShare1 and UserKeyShare2 are the RSA-encrypted key shares.
	// UserKeyShare2 is nil when the contract emitted a single share.
	UserKeyShare1 []byte
	UserKeyShare2 []byte
	TxHash        common.Hash
}

// SingleShare reports whether the log carried one share that decrypts
// directly to the account key.
func (r *Receipt) SingleShare() bool {
	return r.UserKeyShare2 == nil
}

// DecodeReceipt extracts the key shares from the first AccountOnboarded log
// of a successful receipt.
func DecodeReceipt(receipt *types.Receipt) (*Receipt, error) {
	if receipt == nil {
		return nil, fmt.Errorf("%w: nil receipt", ErrNoOnboardLog)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrTransactionReverted, receipt.TxHash.Hex())
	}

	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}
		shares, ok, err := decodeShares(log)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		out := &Receipt{TxHash: receipt.TxHash, UserKeyShare1: shares[0]}
		if len(shares) == 2 {
			out.UserKeyShare2 = shares[1]
		}
		if len(log.Topics) > 1 {
			out.Account = common.BytesToAddress(log.Topics[1].Bytes())
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoOnboardLog, receipt.TxHash.Hex())
}

func decodeShares(log *types.Log) ([][]byte, bool, error) {
	for _, parsed := range []abi.ABI{contractABI, singleShareABI} {
		event, err := parsed.EventByID(log.Topics[0])
		if err != nil || event.Name != eventAccountOnboarded {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", event.Sig, err)
		}

		shares := make([][]byte, 0, len(values))
		for i, v := range values {
			share, ok := v.([]byte)
			if !ok || len(share) == 0 {
				return nil, false, fmt.Errorf("decode %s: key share %d is empty", event.Sig, i+1)
			}
			shares = append(shares, share)
		}
		return shares, true, nil
	}
	return nil, false, nil
}
