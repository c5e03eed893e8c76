package onboard

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI is the interface of the account registration contract.
const ABI = `[
	{
		"type": "function",
		"name": "onboardAccount",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "publicKey", "type": "bytes"},
			{"name": "signedEK", "type": "bytes"}
		],
		"outputs": []
	},
	{
		"type": "event",
		"name": "AccountOnboarded",
		"anonymous": false,
		"inputs": [
			{"name": "_from", "type": "address", "indexed": true},
			{"name": "userKey1", "type": "bytes", "indexed": false},
			{"name": "userKey2", "type": "bytes", "indexed": false}
		]
	}
]`

// SingleShareEventABI describes registration contracts that emit the
// account key as one RSA-encrypted share.
const SingleShareEventABI = `[
	{
		"type": "event",
		"name": "AccountOnboarded",
		"anonymous": false,
		"inputs": [
			{"name": "_from", "type": "address", "indexed": true},
			{"name": "userKey", "type": "bytes", "indexed": false}
		]
	}
]`

const (
	methodOnboardAccount  = "onboardAccount"
	eventAccountOnboarded = "AccountOnboarded"
)

var (
	contractABI    = mustParseABI(ABI)
	singleShareABI = mustParseABI(SingleShareEventABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("onboard: invalid ABI: %v", err))
	}
	return parsed
}

// PackOnboardAccount encodes a call to onboardAccount(publicKey, signature).
func PackOnboardAccount(publicKey, signature []byte) ([]byte, error) {
	data, err := contractABI.Pack(methodOnboardAccount, publicKey, signature)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", methodOnboardAccount, err)
	}
	return data, nil
}

// UnpackOnboardAccount decodes onboardAccount call data, selector included.
func UnpackOnboardAccount(data []byte) (publicKey, signature []byte, err error) {
	method := contractABI.Methods[methodOnboardAccount]
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		return nil, nil, fmt.Errorf("not an %s call", methodOnboardAccount)
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("unpack %s: %w", methodOnboardAccount, err)
	}
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("unpack %s: got %d values", methodOnboardAccount, len(values))
	}
	publicKey, ok1 := values[0].([]byte)
	signature, ok2 := values[1].([]byte)
	if !ok1 || !ok2 {
		return nil, nil, fmt.Errorf("unpack %s: unexpected argument types", methodOnboardAccount)
	}
	return publicKey, signature, nil
}
