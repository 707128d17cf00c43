package mixercore

import "fmt"

// WithdrawDelay is the cooldown after the last deposit, in seconds.
const WithdrawDelay uint64 = 24 * 60 * 60

// Eligibility is the 24h withdrawal timer state for one user.
type Eligibility struct {
	LastDepositTimestamp uint64
	HasDeposit           bool
	CanWithdraw          bool
	Remaining            uint64 // seconds, 0 when eligible
	Countdown            string // "Xh Ym", empty when eligible or no deposit
}

// EvaluateEligibility compares now with the contract-reported deposit time.
// A zero timestamp means no deposit on record. Both values are Unix seconds
// from different clocks; no skew correction is applied, and a deposit time in
// the future is treated as "just deposited".
func EvaluateEligibility(lastDepositTimestamp, now uint64) Eligibility {
	e := Eligibility{LastDepositTimestamp: lastDepositTimestamp}
	if lastDepositTimestamp == 0 {
		return e
	}
	e.HasDeposit = true
	var elapsed uint64
	if now > lastDepositTimestamp {
		elapsed = now - lastDepositTimestamp
	}
	if elapsed >= WithdrawDelay {
		e.CanWithdraw = true
		return e
	}
	e.Remaining = WithdrawDelay - elapsed
	e.Countdown = fmt.Sprintf("%dh %dm", e.Remaining/3600, (e.Remaining%3600)/60)
	return e
}
