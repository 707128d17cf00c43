package mixercore

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// NetworkSnapshot is the fee context shown next to the deposit/withdraw buttons.
type NetworkSnapshot struct {
	Head    uint64
	BaseFee *big.Int
	Tip     *big.Int
}

// ReadNetwork returns the latest head, its base fee and the node's suggested tip.
func ReadNetwork(ctx context.Context, ec *ethclient.Client) (NetworkSnapshot, error) {
	h, err := ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return NetworkSnapshot{}, sourceErr("head", err)
	}
	ns := NetworkSnapshot{Head: h.Number.Uint64(), BaseFee: big.NewInt(0), Tip: big.NewInt(0)}
	if h.BaseFee != nil {
		ns.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if tip, err := ec.SuggestGasTipCap(ctx); err == nil {
		ns.Tip = tip
	}
	return ns, nil
}

// FormatGwei renders wei as gwei with two decimals.
func FormatGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), big.NewInt(1_000_000_000))
	return r.FloatString(2)
}
