package mixercore

import "math/big"

// Mixer fee is 0.1% of the gross amount, rounded down.
const (
	FeeNumerator   = 10
	FeeDenominator = 10_000
)

// ApplyFee splits gross into the fee the contract keeps and the net the receiver gets.
// Every fee shown to the user goes through here so the estimate matches what the contract charges.
func ApplyFee(gross *big.Int) (fee, net *big.Int) {
	if gross == nil || gross.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	fee = new(big.Int).Mul(gross, big.NewInt(FeeNumerator))
	fee.Quo(fee, big.NewInt(FeeDenominator))
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
