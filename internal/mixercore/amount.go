package mixercore

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed-point scale of the mixed token.
const TokenDecimals = 18

// FormatAmount renders base units as a decimal token string ("49.95", "100").
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -TokenDecimals).String()
}

// ParseAmount converts a user-entered token amount into base units.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, s)
	}
	units := d.Shift(TokenDecimals)
	if !units.IsInteger() {
		return nil, fmt.Errorf("%w: too many fractional digits for %d decimals", ErrInvalidAmount, TokenDecimals)
	}
	return units.BigInt(), nil
}

// ParseAddress validates a user-supplied hex address. The zero address is rejected.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	a := common.HexToAddress(s)
	if a == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return a, nil
}

func ShortAddress(a common.Address) string { return a.Hex()[:6] + "..." }

func ShortHash(h common.Hash) string { return h.Hex()[:10] }
