package mixercore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructDepositLock(t *testing.T) {
	fee := big.NewInt(0)
	tests := []struct {
		name   string
		events []ContractEvent
		locked bool
	}{
		{
			name:   "no activity",
			events: nil,
			locked: false,
		},
		{
			name:   "deposit only",
			events: []ContractEvent{depositEvent(alice, tokens(10), 100, 1)},
			locked: true,
		},
		{
			name: "withdraw after deposit unlocks",
			events: []ContractEvent{
				depositEvent(alice, tokens(10), 100, 1),
				withdrawEvent(alice, bob, tokens(1), fee, 150, 2),
			},
			locked: false,
		},
		{
			name: "withdraw before deposit does not count",
			events: []ContractEvent{
				withdrawEvent(alice, bob, tokens(1), fee, 90, 2),
				depositEvent(alice, tokens(10), 100, 1),
			},
			locked: true,
		},
		{
			name: "withdraw in the same block does not unlock",
			events: []ContractEvent{
				depositEvent(alice, tokens(10), 100, 1),
				withdrawEvent(alice, bob, tokens(1), fee, 100, 2),
			},
			locked: true,
		},
		{
			name: "new deposit relocks",
			events: []ContractEvent{
				depositEvent(alice, tokens(10), 100, 1),
				withdrawEvent(alice, bob, tokens(1), fee, 150, 2),
				depositEvent(alice, tokens(5), 200, 3),
			},
			locked: true,
		},
		{
			name: "second deposit in the same block does not relock",
			events: []ContractEvent{
				depositEvent(alice, tokens(10), 100, 1),
				withdrawEvent(alice, bob, tokens(1), fee, 150, 2),
				depositEvent(alice, tokens(5), 100, 3),
			},
			locked: false,
		},
		{
			name: "someone else's withdrawal does not unlock",
			events: []ContractEvent{
				depositEvent(alice, tokens(10), 100, 1),
				withdrawEvent(carol, alice, tokens(1), fee, 150, 2),
			},
			locked: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Reconstruct(tt.events, alice)
			assert.Equal(t, tt.locked, v.DepositLocked)
			if tt.locked {
				assert.Equal(t, DepositLockMessage, v.DepositLockMessage)
			} else {
				assert.Empty(t, v.DepositLockMessage)
			}
		})
	}
}

func TestReconstructBalances(t *testing.T) {
	events := []ContractEvent{
		depositEvent(alice, tokens(100), 10, 1),
		depositEvent(bob, tokens(7), 11, 2),
		withdrawEvent(alice, carol, tokens(50), units(t, "0.05"), 20, 3),
	}
	v := Reconstruct(events, alice)

	assert.Equal(t, "100", FormatAmount(v.Deposits))
	assert.Equal(t, "50.05", FormatAmount(v.WithdrawalsGross))
	assert.Equal(t, "49.95", FormatAmount(v.AvailableGross))
	_, net := ApplyFee(v.AvailableGross)
	assert.Equal(t, 0, net.Cmp(v.MaxNetWithdrawable))
	assert.LessOrEqual(t, v.MaxNetWithdrawable.Cmp(v.AvailableGross), 0)
	assert.True(t, v.HasDeposit)
	assert.Equal(t, uint64(10), v.LastDepositBlock)
	assert.True(t, v.WithdrawnSinceLast)
	assert.False(t, v.DepositLocked)

	require.Len(t, v.History, 2)
	assert.Equal(t, Withdrawn, v.History[0].Kind)
	assert.Equal(t, "50.05", v.History[0].DisplayAmount)
	assert.Equal(t, carol, v.History[0].Counterparty)
	assert.Equal(t, Deposited, v.History[1].Kind)
	assert.Equal(t, alice, v.History[1].Counterparty)
}

func TestReconstructFloorsAvailableAtZero(t *testing.T) {
	events := []ContractEvent{
		depositEvent(alice, tokens(1), 10, 1),
		withdrawEvent(alice, bob, tokens(5), big.NewInt(0), 20, 2),
	}
	v := Reconstruct(events, alice)
	assert.Equal(t, 0, v.AvailableGross.Sign())
	assert.Equal(t, 0, v.MaxNetWithdrawable.Sign())
	assert.Equal(t, "5", FormatAmount(v.WithdrawalsGross))
}

func TestReconstructAttributesWithdrawalsByCaller(t *testing.T) {
	// alice withdraws to bob; bob's history must not show it
	events := []ContractEvent{
		depositEvent(alice, tokens(10), 10, 1),
		withdrawEvent(alice, bob, tokens(4), big.NewInt(0), 20, 2),
	}

	forBob := Reconstruct(events, bob)
	assert.Empty(t, forBob.History)
	assert.Equal(t, 0, forBob.WithdrawalsGross.Sign())
	assert.False(t, forBob.HasDeposit)
	assert.False(t, forBob.DepositLocked)

	forAlice := Reconstruct(events, alice)
	require.Len(t, forAlice.History, 2)
	assert.Equal(t, bob, forAlice.History[0].Counterparty)
	assert.Equal(t, "6", FormatAmount(forAlice.AvailableGross))
}

func TestReconstructHistoryIsNewestFirst(t *testing.T) {
	events := []ContractEvent{
		depositEvent(alice, tokens(1), 10, 1),
		withdrawEvent(alice, bob, tokens(1), big.NewInt(0), 11, 2),
		depositEvent(alice, tokens(2), 12, 3),
		withdrawEvent(alice, carol, tokens(1), big.NewInt(0), 13, 4),
	}
	v := Reconstruct(events, alice)
	require.Len(t, v.History, len(events))
	for i, h := range v.History {
		src := events[len(events)-1-i]
		assert.Equal(t, src.TxHash, h.TxHash)
		assert.Equal(t, src.BlockNumber, h.BlockNumber)
	}
}

func TestReconstructEmpty(t *testing.T) {
	v := Reconstruct(nil, alice)
	assert.Empty(t, v.History)
	assert.Equal(t, 0, v.Deposits.Sign())
	assert.Equal(t, 0, v.AvailableGross.Sign())
	assert.Equal(t, 0, v.MaxNetWithdrawable.Sign())
	assert.False(t, v.HasDeposit)
	assert.False(t, v.DepositLocked)
}

func TestHistoryLine(t *testing.T) {
	h := HistoryEntry{
		Kind:          Deposited,
		DisplayAmount: "100",
		Counterparty:  alice,
		TxHash:        txHash(1),
	}
	want := "[Deposited] 100 PRVX - " + alice.Hex()[:6] + "... @ tx " + txHash(1).Hex()[:10]
	assert.Equal(t, want, h.Line("PRVX"))
}
