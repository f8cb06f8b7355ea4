package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub answers JSON-RPC calls by method name.
func rpcStub(t *testing.T, handle func(method string, params []json.RawMessage) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  handle(req.Method, req.Params),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func statusResult(status string, txErr any) any {
	if status == "" {
		return map[string]any{"context": map[string]any{"slot": 1}, "value": []any{nil}}
	}
	return map[string]any{
		"context": map[string]any{"slot": 1},
		"value": []any{map[string]any{
			"slot":               10,
			"confirmations":      nil,
			"err":                txErr,
			"confirmationStatus": status,
		}},
	}
}

func testChain(url string) *ChainClient {
	return &ChainClient{
		JSON:           NewJSONRPCClient(url),
		Commitment:     "confirmed",
		ConfirmTimeout: time.Second,
		PollInterval:   10 * time.Millisecond,
	}
}

func TestConfirmTransactionPollsUntilConfirmed(t *testing.T) {
	var calls atomic.Int32
	srv := rpcStub(t, func(method string, _ []json.RawMessage) any {
		assert.Equal(t, "getSignatureStatuses", method)
		switch calls.Add(1) {
		case 1:
			return statusResult("", nil)
		case 2:
			return statusResult("processed", nil)
		default:
			return statusResult("confirmed", nil)
		}
	})

	require.NoError(t, testChain(srv.URL).ConfirmTransaction(context.Background(), "sig"))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestConfirmTransactionFailure(t *testing.T) {
	srv := rpcStub(t, func(string, []json.RawMessage) any {
		return statusResult("confirmed", map[string]any{"InstructionError": []any{2, "InvalidAccountData"}})
	})

	err := testChain(srv.URL).ConfirmTransaction(context.Background(), "sig")
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestConfirmTransactionTimeout(t *testing.T) {
	srv := rpcStub(t, func(string, []json.RawMessage) any { return statusResult("", nil) })

	c := testChain(srv.URL)
	c.ConfirmTimeout = 50 * time.Millisecond
	err := c.ConfirmTransaction(context.Background(), "sig")
	assert.ErrorIs(t, err, ErrConfirmTimeout)
}

func TestVerifyLaunch(t *testing.T) {
	mint := types.NewAccount().PublicKey.ToBase58()
	owner := Token2022ProgramID.ToBase58()

	srv := rpcStub(t, func(method string, params []json.RawMessage) any {
		switch method {
		case "getSignatureStatuses":
			return statusResult("finalized", nil)
		case "getAccountInfo":
			var addr string
			require.NoError(t, json.Unmarshal(params[0], &addr))
			assert.Equal(t, mint, addr)
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value": map[string]any{
					"lamports": 1, "owner": owner, "data": []string{"", "base64"},
					"executable": false, "space": 234,
				},
			}
		}
		return nil
	})

	require.NoError(t, testChain(srv.URL).VerifyLaunch(context.Background(), mint, "sig"))

	owner = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	assert.ErrorIs(t, testChain(srv.URL).VerifyLaunch(context.Background(), mint, "sig"), ErrNotToken2022Account)
}

func TestVerifyLaunchMissing(t *testing.T) {
	srv := rpcStub(t, func(method string, _ []json.RawMessage) any {
		if method == "getSignatureStatuses" {
			return statusResult("", nil)
		}
		return map[string]any{"context": map[string]any{"slot": 1}, "value": nil}
	})
	assert.ErrorIs(t, testChain(srv.URL).VerifyLaunch(context.Background(), "mint", "sig"), ErrSignatureNotFound)
}
