package mixercore

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	alice   = common.HexToAddress("0xA11CE00000000000000000000000000000000001")
	bob     = common.HexToAddress("0xB0B0000000000000000000000000000000000002")
	carol   = common.HexToAddress("0xCA20100000000000000000000000000000000003")
	mixer   = common.HexToAddress("0x4c1b6c0000000000000000000000000000000004")
	errBoom = errors.New("boom")
)

// tokens returns n whole tokens in base units.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil))
}

// units parses a decimal token amount, failing the test on error.
func units(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := ParseAmount(s)
	require.NoError(t, err)
	return v
}

func txHash(n int) common.Hash { return common.BigToHash(big.NewInt(int64(n) + 0x1000)) }

func depositEvent(sender common.Address, amount *big.Int, block uint64, tx int) ContractEvent {
	return ContractEvent{Kind: Deposited, Sender: sender, Amount: amount, BlockNumber: block, TxHash: txHash(tx)}
}

func withdrawEvent(caller, receiver common.Address, net, fee *big.Int, block uint64, tx int) ContractEvent {
	return ContractEvent{Kind: Withdrawn, Caller: caller, Receiver: receiver, Amount: net, Fee: fee, BlockNumber: block, TxHash: txHash(tx)}
}

func depositLog(t *testing.T, sender common.Address, amount *big.Int, block uint64, tx int) types.Log {
	t.Helper()
	ev := mixerABI.Events["Deposited"]
	data, err := ev.Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)
	return types.Log{
		Address:     mixer,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(sender.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash(tx),
	}
}

func withdrawLog(t *testing.T, receiver common.Address, net, fee *big.Int, block uint64, tx int) types.Log {
	t.Helper()
	ev := mixerABI.Events["Withdrawn"]
	data, err := ev.Inputs.NonIndexed().Pack(net, fee)
	require.NoError(t, err)
	return types.Log{
		Address:     mixer,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(receiver.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash(tx),
	}
}

// fakeSource serves a fixed log list and tx senders, counting calls.
type fakeSource struct {
	mu      sync.Mutex
	head    uint64
	logs    []types.Log
	senders map[common.Hash]common.Address

	headErr   error
	filterErr error
	senderErr error
	queries   []ethereum.FilterQuery
	lookups   map[common.Hash]int
	calls     int
}

func newFakeSource(head uint64, logs ...types.Log) *fakeSource {
	return &fakeSource{head: head, logs: logs, senders: map[common.Hash]common.Address{}, lookups: map[common.Hash]int{}}
}

func (f *fakeSource) HeadBlock(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.head, f.headErr
}

func (f *fakeSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, q)
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	var out []types.Log
	for _, lg := range f.logs {
		if q.FromBlock != nil && lg.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && lg.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *fakeSource) TransactionSender(_ context.Context, h common.Hash) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lookups[h]++
	if f.senderErr != nil {
		return common.Address{}, f.senderErr
	}
	from, ok := f.senders[h]
	if !ok {
		return common.Address{}, errors.New("unknown tx")
	}
	return from, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
