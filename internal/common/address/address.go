// Package address normalizes Ethereum account addresses.
package address

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Normalize validates a hex address and returns its EIP-55 checksum form,
// which is the canonical key used across the ledger.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return "", fmt.Errorf("zero address is not allowed")
	}
	return addr.Hex(), nil
}

// MustNormalize is Normalize for constants and tests.
func MustNormalize(s string) string {
	addr, err := Normalize(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}
