package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer answers JSON-RPC calls from a method → result table
type rpcServer struct {
	mu      sync.Mutex
	results map[string]string
	calls   map[string][]json.RawMessage
}

func newRPCServer(t *testing.T, results map[string]string) (*rpcServer, *httptest.Server) {
	s := &rpcServer{results: results, calls: map[string][]json.RawMessage{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.calls[req.Method] = append(s.calls[req.Method], req.Params)
		result, ok := s.results[req.Method]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *rpcServer) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls[method])
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestGetAccount(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	data := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	_, srv := newRPCServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":5},"value":{"data":["` + data + `","base64"],"executable":false,"lamports":100,"owner":"` + owner.String() + `"}}`,
	})

	c := New(Config{RPCEndpoint: srv.URL}, quietLogger())
	acc, err := c.GetAccount(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, owner, acc.Owner)
	assert.Equal(t, []byte{1, 2, 3, 4}, acc.Data)
}

func TestGetAccount_Missing(t *testing.T) {
	_, srv := newRPCServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":5},"value":null}`,
	})

	_, err := New(Config{RPCEndpoint: srv.URL}, quietLogger()).GetAccount(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, platform.ErrAccountNotFound)
}

func TestTokenBalance_UsesRawAmount(t *testing.T) {
	_, srv := newRPCServer(t, map[string]string{
		"getTokenAccountBalance": `{"context":{"slot":5},"value":{"amount":"34281150129545","decimals":6,"uiAmount":34281150.129545,"uiAmountString":"34281150.129545"}}`,
	})

	balance, err := New(Config{RPCEndpoint: srv.URL}, quietLogger()).
		TokenBalance(context.Background(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(34_281_150_129_545), balance)
}

func TestTokenBalance_MissingAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param: could not find account"}}`))
	}))
	defer srv.Close()

	_, err := New(Config{RPCEndpoint: srv.URL}, quietLogger()).
		TokenBalance(context.Background(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, platform.ErrAccountNotFound)
}

func TestSignatureStatus(t *testing.T) {
	s, srv := newRPCServer(t, map[string]string{
		"getSignatureStatuses": `{"context":{"slot":5},"value":[{"slot":42,"confirmations":null,"err":null,"confirmationStatus":"confirmed"}]}`,
	})
	c := New(Config{RPCEndpoint: srv.URL}, quietLogger())

	st, err := c.SignatureStatus(context.Background(), solana.Signature{1}, true)
	require.NoError(t, err)
	assert.True(t, st.Landed())
	assert.False(t, st.Failed())
	assert.Equal(t, uint64(42), st.Slot)

	s.mu.Lock()
	params := string(s.calls["getSignatureStatuses"][0])
	s.mu.Unlock()
	assert.Contains(t, params, `"searchTransactionHistory":true`)

	s.mu.Lock()
	s.results["getSignatureStatuses"] = `{"context":{"slot":5},"value":[null]}`
	s.mu.Unlock()
	st, err = c.SignatureStatus(context.Background(), solana.Signature{1}, false)
	require.NoError(t, err)
	assert.False(t, st.Found)
	assert.False(t, st.Landed())
}

func TestSignatureStatus_ExecutionError(t *testing.T) {
	_, srv := newRPCServer(t, map[string]string{
		"getSignatureStatuses": `{"context":{"slot":5},"value":[{"slot":42,"err":{"InstructionError":[2,{"Custom":6001}]},"confirmationStatus":"confirmed"}]}`,
	})

	st, err := New(Config{RPCEndpoint: srv.URL}, quietLogger()).SignatureStatus(context.Background(), solana.Signature{1}, false)
	require.NoError(t, err)
	assert.True(t, st.Failed())
}

func TestRecentPrioritizationFees(t *testing.T) {
	s, srv := newRPCServer(t, map[string]string{
		"getRecentPrioritizationFees": `[{"slot":100,"prioritizationFee":0},{"slot":101,"prioritizationFee":5000}]`,
	})
	program := solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	samples, err := New(Config{RPCEndpoint: srv.URL}, quietLogger()).
		RecentPrioritizationFees(context.Background(), []solana.PublicKey{program})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, uint64(101), samples[1].Slot)
	assert.Equal(t, uint64(5000), samples[1].Fee)
	assert.Equal(t, 1, s.callCount("getRecentPrioritizationFees"))
}

func TestRPCTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{RPCEndpoint: srv.URL, Timeout: 50 * time.Millisecond}, quietLogger())
	start := time.Now()
	_, err := c.Balance(context.Background(), solana.NewWallet().PublicKey())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
