package mixercore

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WithdrawalPreview is what the user sees before confirming a withdrawal.
type WithdrawalPreview struct {
	Recipient        common.Address
	Gross            *big.Int
	Fee              *big.Int
	Net              *big.Int
	ExceedsAvailable bool
}

// PreviewWithdrawal validates the inputs and splits amount with ApplyFee.
// The recipient (typed or the saved quick address) is passed in explicitly.
func PreviewWithdrawal(amount, recipient string, available *big.Int) (WithdrawalPreview, error) {
	to, err := ParseAddress(recipient)
	if err != nil {
		return WithdrawalPreview{}, err
	}
	gross, err := ParseAmount(amount)
	if err != nil {
		return WithdrawalPreview{}, err
	}
	fee, net := ApplyFee(gross)
	p := WithdrawalPreview{Recipient: to, Gross: gross, Fee: fee, Net: net}
	if available != nil && gross.Cmp(available) > 0 {
		p.ExceedsAvailable = true
	}
	return p, nil
}
