package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// Network is a JSON-RPC endpoint of a public network.
type Network string

const (
	Testnet Network = "https://testnet.coti.io/rpc"
	Mainnet Network = "https://mainnet.coti.io/rpc"
)

// URL returns the RPC URL of the network.
func (n Network) URL() string {
	return string(n)
}

func (n Network) String() string {
	switch n {
	case Testnet:
		return "testnet"
	case Mainnet:
		return "mainnet"
	}
	return string(n)
}

// ParseNetwork accepts "testnet", "mainnet", or an RPC URL.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "testnet":
		return Testnet, nil
	case "mainnet":
		return Mainnet, nil
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://") {
		return Network(s), nil
	}
	return "", fmt.Errorf("unknown network %q", s)
}

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

// FormatEther renders a wei amount as a decimal ether string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	s := new(big.Rat).SetFrac(wei, weiPerEther).FloatString(18)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
