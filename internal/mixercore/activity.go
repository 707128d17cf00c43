package mixercore

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DepositLockMessage is shown while a new deposit is refused.
const DepositLockMessage = "Deposit disabled: make a withdrawal before depositing again. Withdrawal available 24h after the last deposit."

// HistoryEntry is one of the user's own events. Amount is always gross.
type HistoryEntry struct {
	Kind          EventKind
	Amount        *big.Int
	DisplayAmount string
	Counterparty  common.Address
	TxHash        common.Hash
	BlockNumber   uint64
}

// Line renders the entry the way the dashboard lists it.
func (h HistoryEntry) Line(symbol string) string {
	return fmt.Sprintf("[%s] %s %s - %s @ tx %s", h.Kind, h.DisplayAmount, symbol, ShortAddress(h.Counterparty), ShortHash(h.TxHash))
}

// ActivityView is rebuilt from scratch on every refresh and never persisted.
type ActivityView struct {
	History            []HistoryEntry // newest first
	Deposits           *big.Int
	WithdrawalsGross   *big.Int
	AvailableGross     *big.Int
	MaxNetWithdrawable *big.Int
	HasDeposit         bool
	LastDepositBlock   uint64
	WithdrawnSinceLast bool
	DepositLocked      bool
	DepositLockMessage string
}

// Reconstruct replays the mixer events (block-ascending, as delivered) for one user.
//
// Deposits belong to the user by their sender argument, withdrawals by the
// transaction caller, never by the receiver. A withdrawal in the same block as
// the latest deposit does not count as "after" it.
func Reconstruct(events []ContractEvent, user common.Address) ActivityView {
	deposits := new(big.Int)
	withdrawn := new(big.Int)
	var (
		mine          []HistoryEntry
		hasDep        bool
		lastDepBlock  uint64
		withdrawAfter bool
	)
	for _, ev := range events {
		switch ev.Kind {
		case Deposited:
			if ev.Sender != user {
				continue
			}
			amt := ev.Gross()
			deposits.Add(deposits, amt)
			mine = append(mine, newEntry(ev, amt, ev.Sender))
			if !hasDep || ev.BlockNumber > lastDepBlock {
				hasDep = true
				lastDepBlock = ev.BlockNumber
				withdrawAfter = false
			}
		case Withdrawn:
			if ev.Caller != user {
				continue
			}
			gross := ev.Gross()
			withdrawn.Add(withdrawn, gross)
			mine = append(mine, newEntry(ev, gross, ev.Receiver))
			if hasDep && ev.BlockNumber > lastDepBlock {
				withdrawAfter = true
			}
		}
	}

	available := new(big.Int).Sub(deposits, withdrawn)
	if available.Sign() < 0 {
		available.SetInt64(0)
	}
	_, maxNet := ApplyFee(available)

	for i, j := 0, len(mine)-1; i < j; i, j = i+1, j-1 {
		mine[i], mine[j] = mine[j], mine[i]
	}

	v := ActivityView{
		History:            mine,
		Deposits:           deposits,
		WithdrawalsGross:   withdrawn,
		AvailableGross:     available,
		MaxNetWithdrawable: maxNet,
		HasDeposit:         hasDep,
		LastDepositBlock:   lastDepBlock,
		WithdrawnSinceLast: withdrawAfter,
	}
	if hasDep && !withdrawAfter {
		v.DepositLocked = true
		v.DepositLockMessage = DepositLockMessage
	}
	return v
}

func newEntry(ev ContractEvent, gross *big.Int, counterparty common.Address) HistoryEntry {
	return HistoryEntry{
		Kind:          ev.Kind,
		Amount:        gross,
		DisplayAmount: FormatAmount(gross),
		Counterparty:  counterparty,
		TxHash:        ev.TxHash,
		BlockNumber:   ev.BlockNumber,
	}
}
