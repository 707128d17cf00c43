package mixercore

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/mixer-dashboard/internal/metrics"
)

// ScanOptions controls how the contract log is read.
type ScanOptions struct {
	Contract    common.Address
	FromBlock   uint64
	ChunkBlocks uint64 // 0 = one query up to the latest block
	Concurrency int    // parallel tx lookups, <=0 = unlimited
	Logf        func(format string, a ...any)
}

func (o ScanOptions) logf(format string, a ...any) {
	if o.Logf != nil {
		o.Logf(format, a...)
	}
}

// FetchLogs reads every log of the contract from FromBlock on, in block order.
func FetchLogs(ctx context.Context, src LogSource, opt ScanOptions) ([]types.Log, error) {
	query := func(from uint64, to *big.Int) ([]types.Log, error) {
		logs, err := src.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   to,
			Addresses: []common.Address{opt.Contract},
		})
		if err != nil {
			metrics.LogQueries.WithLabelValues("error").Inc()
			return nil, sourceErr(fmt.Sprintf("getLogs from %d", from), err)
		}
		metrics.LogQueries.WithLabelValues("ok").Inc()
		return logs, nil
	}

	if opt.ChunkBlocks == 0 {
		opt.logf("getLogs contract=%s from=%d to=latest", opt.Contract.Hex(), opt.FromBlock)
		return query(opt.FromBlock, nil)
	}

	head, err := src.HeadBlock(ctx)
	if err != nil {
		return nil, sourceErr("head block", err)
	}
	var all []types.Log
	for start := opt.FromBlock; start <= head; start += opt.ChunkBlocks {
		end := start + opt.ChunkBlocks - 1
		if end > head {
			end = head
		}
		opt.logf("getLogs contract=%s window=%d..%d", opt.Contract.Hex(), start, end)
		logs, err := query(start, new(big.Int).SetUint64(end))
		if err != nil {
			return nil, err
		}
		all = append(all, logs...)
	}
	return all, nil
}

// ResolveCallers fills Caller on every Withdrawn event. The caller is unknown
// until looked up, so every withdrawal in the log is resolved, not just the
// user's. Lookups run in parallel, one per distinct tx hash; any failure fails
// the whole pass.
func ResolveCallers(ctx context.Context, src LogSource, events []ContractEvent, concurrency int) ([]ContractEvent, error) {
	slot := make(map[common.Hash]int)
	var hashes []common.Hash
	for _, ev := range events {
		if ev.Kind != Withdrawn {
			continue
		}
		if _, ok := slot[ev.TxHash]; !ok {
			slot[ev.TxHash] = len(hashes)
			hashes = append(hashes, ev.TxHash)
		}
	}

	callers := make([]common.Address, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, h := range hashes {
		g.Go(func() error {
			from, err := src.TransactionSender(gctx, h)
			if err != nil {
				metrics.SenderLookups.WithLabelValues("error").Inc()
				return sourceErr("getTransaction "+h.Hex(), err)
			}
			metrics.SenderLookups.WithLabelValues("ok").Inc()
			callers[i] = from
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ContractEvent, len(events))
	copy(out, events)
	for i := range out {
		if out[i].Kind == Withdrawn {
			out[i].Caller = callers[slot[out[i].TxHash]]
		}
	}
	return out, nil
}

// LoadActivity fetches, decodes, attributes and reconstructs in one pass.
// On any source failure it returns an error and no view.
func LoadActivity(ctx context.Context, src LogSource, user common.Address, opt ScanOptions) (ActivityView, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	logs, err := FetchLogs(ctx, src, opt)
	if err != nil {
		return ActivityView{}, err
	}
	events, skipped := DecodeLogs(logs)
	metrics.LogsScanned.Add(float64(len(logs)))
	metrics.LogsSkipped.Add(float64(skipped))
	opt.logf("logs=%d decoded=%d skipped=%d", len(logs), len(events), skipped)

	events, err = ResolveCallers(ctx, src, events, opt.Concurrency)
	if err != nil {
		return ActivityView{}, err
	}
	view := Reconstruct(events, user)
	opt.logf("user=%s history=%d availableGross=%s locked=%v", user.Hex(), len(view.History), FormatAmount(view.AvailableGross), view.DepositLocked)
	return view, nil
}
