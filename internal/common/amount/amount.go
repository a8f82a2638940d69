// Package amount holds native-currency quantities expressed in wei.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiPerEther is the number of decimal places between wei and ether.
const WeiPerEther = 18

// MaxWeiDigits is the length of MaxWei in decimal digits.
const MaxWeiDigits = 78

// MaxWei is the largest amount a uint256 can carry, 2^256 - 1.
var MaxWei = decimal.NewFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)

// ParseWei parses a plain decimal integer wei string. Signs, exponents and
// fractions are rejected before parsing.
func ParseWei(s string) (decimal.Decimal, error) {
	if s == "" || len(s) > MaxWeiDigits || !isDigits(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: must be a whole number of wei", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !InRange(d) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: exceeds uint256", s)
	}
	return d, nil
}

// FromEther converts an ether quantity (for example "0.5") to wei.
func FromEther(s string) (decimal.Decimal, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" ||
		len(whole) > MaxWeiDigits-WeiPerEther || len(frac) > WeiPerEther ||
		!isDigits(whole) || !isDigits(frac) {
		return decimal.Zero, fmt.Errorf("invalid ether amount %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid ether amount %q: %w", s, err)
	}
	wei := d.Shift(WeiPerEther)
	if !InRange(wei) {
		return decimal.Zero, fmt.Errorf("invalid ether amount %q: exceeds uint256", s)
	}
	return wei, nil
}

// Ether renders a wei amount in ether without trailing zeros.
func Ether(wei decimal.Decimal) string {
	return wei.Shift(-WeiPerEther).String()
}

// IsWei reports whether d is a non-negative whole number.
func IsWei(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}

// InRange reports whether d is a whole number of wei a uint256 can hold.
func InRange(d decimal.Decimal) bool {
	return IsWei(d) && d.LessThanOrEqual(MaxWei)
}

// MustEther is FromEther for constants and tests.
func MustEther(s string) decimal.Decimal {
	wei, err := FromEther(s)
	if err != nil {
		panic(err)
	}
	return wei
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
