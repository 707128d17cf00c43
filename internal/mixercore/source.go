package mixercore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// LogSource is the read side of the chain the reconstruction depends on.
type LogSource interface {
	HeadBlock(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error)
}

// EthSource is a LogSource over JSON-RPC. Rate-limited calls are retried here,
// with small exponential backoff; everything above it sees a single call.
type EthSource struct {
	ec       *ethclient.Client
	attempts int
}

func NewEthSource(ec *ethclient.Client, attempts int) *EthSource {
	if attempts <= 0 {
		attempts = 1
	}
	return &EthSource{ec: ec, attempts: attempts}
}

func (s *EthSource) HeadBlock(ctx context.Context) (uint64, error) {
	return withRetry(ctx, s.attempts, func() (uint64, error) { return s.ec.BlockNumber(ctx) })
}

func (s *EthSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return withRetry(ctx, s.attempts, func() ([]types.Log, error) { return s.ec.FilterLogs(ctx, q) })
}

// txFrom is the only field of eth_getTransactionByHash we read. Decoding the
// whole transaction would fail on types this client does not know.
type txFrom struct {
	From *common.Address `json:"from"`
}

// TransactionSender returns the node-reported tx.from for the given hash.
func (s *EthSource) TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error) {
	res, err := withRetry(ctx, s.attempts, func() (*txFrom, error) {
		var r *txFrom
		err := s.ec.Client().CallContext(ctx, &r, "eth_getTransactionByHash", txHash)
		return r, err
	})
	if err != nil {
		return common.Address{}, err
	}
	if res == nil {
		return common.Address{}, fmt.Errorf("tx %s: %w", txHash.Hex(), ethereum.NotFound)
	}
	if res.From == nil {
		return common.Address{}, fmt.Errorf("tx %s: no sender in response", txHash.Hex())
	}
	return *res.From, nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005") || strings.Contains(s, "429")
}

// withRetry runs fn up to attempts times, doubling the pause after rate-limit errors.
func withRetry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	backoff := 200 * time.Millisecond
	var (
		out     T
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(backoff):
		}
		if isRateLimitError(err) {
			backoff *= 2
		}
	}
	return out, lastErr
}
