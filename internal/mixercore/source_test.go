package mixercore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, isRateLimitError(nil))
	assert.True(t, isRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("rpc error -32005: limit exceeded")))
	assert.False(t, isRateLimitError(errors.New("execution reverted")))
}

func TestWithRetry(t *testing.T) {
	n := 0
	v, err := withRetry(context.Background(), 3, func() (int, error) {
		n++
		if n < 2 {
			return 0, errors.New("429 Too Many Requests")
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, n)

	n = 0
	_, err = withRetry(context.Background(), 2, func() (int, error) {
		n++
		return 0, errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, n)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	_, err := withRetry(ctx, 5, func() (int, error) {
		n++
		return 0, errBoom
	})
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

// rpcServer answers eth_getTransactionByHash with the canned result for each hash.
// A missing hash is answered with null.
func rpcServer(t *testing.T, txs map[common.Hash]string) *ethclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Method != "eth_getTransactionByHash" || len(req.Params) != 1 {
			w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		var h common.Hash
		if err := json.Unmarshal(req.Params[0], &h); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := txs[h]
		if !ok {
			result = "null"
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)

	ec, err := ethclient.Dial(srv.URL)
	require.NoError(t, err)
	t.Cleanup(ec.Close)
	return ec
}

func TestEthSourceTransactionSender(t *testing.T) {
	setCode := common.HexToHash("0xaa")
	legacy := common.HexToHash("0xbb")
	noFrom := common.HexToHash("0xcc")
	ec := rpcServer(t, map[common.Hash]string{
		// EIP-7702 set-code tx: the type is unknown to older decoders, only from matters
		setCode: `{"type":"0x4","hash":"` + setCode.Hex() + `","from":"` + alice.Hex() + `","to":"` + mixer.Hex() + `","authorizationList":[]}`,
		legacy:  `{"type":"0x0","hash":"` + legacy.Hex() + `","from":"` + bob.Hex() + `"}`,
		noFrom:  `{"type":"0x2","hash":"` + noFrom.Hex() + `"}`,
	})
	src := NewEthSource(ec, 1)
	ctx := context.Background()

	from, err := src.TransactionSender(ctx, setCode)
	require.NoError(t, err)
	assert.Equal(t, alice, from)

	from, err = src.TransactionSender(ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, bob, from)

	_, err = src.TransactionSender(ctx, common.HexToHash("0xdd"))
	assert.ErrorIs(t, err, ethereum.NotFound)

	_, err = src.TransactionSender(ctx, noFrom)
	assert.Error(t, err)
}

func TestSourceErrKeepsCause(t *testing.T) {
	err := sourceErr("getLogs", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrLogSource)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
