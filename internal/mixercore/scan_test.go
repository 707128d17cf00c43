package mixercore

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLogsSingleQuery(t *testing.T) {
	src := newFakeSource(100,
		depositLog(t, alice, tokens(1), 5, 1),
		depositLog(t, alice, tokens(1), 50, 2),
	)
	logs, err := FetchLogs(context.Background(), src, ScanOptions{Contract: mixer, FromBlock: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint64(50), logs[0].BlockNumber)

	require.Len(t, src.queries, 1)
	q := src.queries[0]
	assert.Nil(t, q.ToBlock)
	assert.Equal(t, []common.Address{mixer}, q.Addresses)
	assert.Equal(t, int64(10), q.FromBlock.Int64())
}

func TestFetchLogsChunked(t *testing.T) {
	src := newFakeSource(25,
		depositLog(t, alice, tokens(1), 3, 1),
		depositLog(t, alice, tokens(1), 10, 2),
		depositLog(t, alice, tokens(1), 19, 3),
		depositLog(t, alice, tokens(1), 25, 4),
	)
	logs, err := FetchLogs(context.Background(), src, ScanOptions{Contract: mixer, ChunkBlocks: 10})
	require.NoError(t, err)
	require.Len(t, logs, 4)
	for i := 1; i < len(logs); i++ {
		assert.Less(t, logs[i-1].BlockNumber, logs[i].BlockNumber)
	}

	require.Len(t, src.queries, 3)
	windows := [][2]int64{{0, 9}, {10, 19}, {20, 25}}
	for i, w := range windows {
		assert.Equal(t, w[0], src.queries[i].FromBlock.Int64())
		assert.Equal(t, w[1], src.queries[i].ToBlock.Int64())
	}
}

func TestFetchLogsFailure(t *testing.T) {
	src := newFakeSource(25)
	src.filterErr = errBoom
	_, err := FetchLogs(context.Background(), src, ScanOptions{Contract: mixer})
	assert.ErrorIs(t, err, ErrLogSource)

	src = newFakeSource(25)
	src.headErr = errBoom
	_, err = FetchLogs(context.Background(), src, ScanOptions{Contract: mixer, ChunkBlocks: 5})
	assert.ErrorIs(t, err, ErrLogSource)
}

func TestResolveCallersDedupesByTx(t *testing.T) {
	src := newFakeSource(0)
	src.senders[txHash(2)] = alice
	src.senders[txHash(3)] = carol

	events := []ContractEvent{
		depositEvent(alice, tokens(1), 1, 1),
		// two withdrawals batched in one tx
		{Kind: Withdrawn, Receiver: bob, Amount: tokens(1), Fee: big.NewInt(0), BlockNumber: 2, TxHash: txHash(2)},
		{Kind: Withdrawn, Receiver: carol, Amount: tokens(1), Fee: big.NewInt(0), BlockNumber: 2, LogIndex: 1, TxHash: txHash(2)},
		{Kind: Withdrawn, Receiver: alice, Amount: tokens(1), Fee: big.NewInt(0), BlockNumber: 3, TxHash: txHash(3)},
	}
	out, err := ResolveCallers(context.Background(), src, events, 2)
	require.NoError(t, err)
	require.Len(t, out, len(events))

	assert.Equal(t, common.Address{}, out[0].Caller)
	assert.Equal(t, alice, out[1].Caller)
	assert.Equal(t, alice, out[2].Caller)
	assert.Equal(t, carol, out[3].Caller)

	assert.Equal(t, 1, src.lookups[txHash(2)])
	assert.Equal(t, 1, src.lookups[txHash(3)])
	assert.Len(t, src.lookups, 2)

	// input untouched
	assert.Equal(t, common.Address{}, events[1].Caller)
}

func TestResolveCallersFailsWhole(t *testing.T) {
	src := newFakeSource(0)
	src.senderErr = errBoom
	events := []ContractEvent{withdrawEvent(common.Address{}, bob, tokens(1), big.NewInt(0), 2, 2)}
	out, err := ResolveCallers(context.Background(), src, events, 0)
	assert.ErrorIs(t, err, ErrLogSource)
	assert.Nil(t, out)
}

func TestLoadActivity(t *testing.T) {
	src := newFakeSource(100,
		depositLog(t, alice, tokens(100), 10, 1),
		depositLog(t, bob, tokens(3), 11, 2),
		withdrawLog(t, carol, tokens(50), units(t, "0.05"), 20, 3),
		withdrawLog(t, alice, tokens(1), big.NewInt(0), 21, 4),
	)
	src.senders[txHash(3)] = alice
	src.senders[txHash(4)] = bob

	v, err := LoadActivity(context.Background(), src, alice, ScanOptions{Contract: mixer, Concurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, "49.95", FormatAmount(v.AvailableGross))
	require.Len(t, v.History, 2)
	assert.Equal(t, carol, v.History[0].Counterparty)
	assert.False(t, v.DepositLocked)

	// bob received a withdrawal from his own call, to alice
	vb, err := LoadActivity(context.Background(), src, bob, ScanOptions{Contract: mixer})
	require.NoError(t, err)
	assert.Equal(t, "2", FormatAmount(vb.AvailableGross))
	assert.False(t, vb.DepositLocked)
}

func TestLoadActivityFailureReturnsNoView(t *testing.T) {
	src := newFakeSource(100,
		depositLog(t, alice, tokens(100), 10, 1),
		withdrawLog(t, alice, tokens(1), big.NewInt(0), 20, 2),
	)
	src.senderErr = errBoom

	v, err := LoadActivity(context.Background(), src, alice, ScanOptions{Contract: mixer})
	assert.ErrorIs(t, err, ErrLogSource)
	assert.Empty(t, v.History)
	assert.Nil(t, v.AvailableGross)
}
