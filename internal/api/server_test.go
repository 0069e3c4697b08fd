package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/basebot/internal/config"
	"github.com/web3guy0/basebot/internal/database"
	"github.com/web3guy0/basebot/internal/trader"
)

type fakeBalances struct {
	balance decimal.Decimal
	err     error
}

func (f *fakeBalances) NativeBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	return f.balance, f.err
}

type fakeEngine struct {
	state trader.State
}

func (f *fakeEngine) State() trader.State {
	return f.state
}

type testServer struct {
	server   *Server
	store    *database.Database
	balances *fakeBalances
	engine   *fakeEngine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	balances := &fakeBalances{balance: decimal.RequireFromString("1.5")}
	engine := &fakeEngine{state: trader.StateIdle}
	server := NewServer(&config.Config{Port: 0}, store, balances, engine)
	return &testServer{server: server, store: store, balances: balances, engine: engine}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedWallet(t *testing.T) *database.Wallet {
	t.Helper()
	w := &database.Wallet{
		Address:    `"0x49226C9a8eae5b040f4aa878369C6ab130985B4C"`,
		PrivateKey: `"0xabc"`,
	}
	require.NoError(t, ts.store.SaveWallet(w))
	return w
}

func startBody(walletID uint) map[string]any {
	return map[string]any{
		"token":      "0x3333333333333333333333333333333333333333",
		"buyAmount":  "0.01",
		"sellAmount": "0.01",
		"frequency":  5,
		"walletId":   walletID,
		"status":     true,
		"slippage":   "0.5",
	}
}

func TestStatusNoSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/status", nil)
	require.Equal(t, http.StatusMultipleChoices, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Started trading does not exist", resp["message"])
	require.Nil(t, resp["currentTrading"])
}

func TestStartCreatesActiveSession(t *testing.T) {
	ts := newTestServer(t)
	wallet := ts.seedWallet(t)

	rec := ts.do(t, "POST", "/start", startBody(wallet.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	active, err := ts.store.ActiveSessions()
	require.NoError(t, err)
	require.Len(t, active, 1)

	got, err := ts.store.GetWallet(wallet.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}

func TestStartConflictLeavesStoreUnchanged(t *testing.T) {
	ts := newTestServer(t)
	wallet := ts.seedWallet(t)

	rec := ts.do(t, "POST", "/start", startBody(wallet.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/start", startBody(wallet.ID))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Trading already started", resp["message"])

	active, err := ts.store.ActiveSessions()
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestStartRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)
	wallet := ts.seedWallet(t)

	body := startBody(wallet.ID)
	delete(body, "token")
	rec := ts.do(t, "POST", "/start", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusReturnsWalletAndBalance(t *testing.T) {
	ts := newTestServer(t)
	wallet := ts.seedWallet(t)
	ts.do(t, "POST", "/start", startBody(wallet.ID))

	rec := ts.do(t, "GET", "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message        string          `json:"message"`
		SelectedWallet string          `json:"selectedWallet"`
		Balance        decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Trading Started!", resp.Message)
	require.True(t, resp.Balance.Equal(decimal.RequireFromString("1.5")))

	// selectedWallet is base64-encoded wallet JSON
	raw, err := base64.StdEncoding.DecodeString(resp.SelectedWallet)
	require.NoError(t, err)
	var decoded database.Wallet
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, wallet.ID, decoded.ID)
}

func TestStopIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	wallet := ts.seedWallet(t)
	ts.do(t, "POST", "/start", startBody(wallet.ID))

	rec := ts.do(t, "POST", "/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	active, err := ts.store.ActiveSessions()
	require.NoError(t, err)
	require.Empty(t, active)

	rec = ts.do(t, "POST", "/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	active, err = ts.store.ActiveSessions()
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestStopWithoutSessions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp["latestInfo"])
}

func TestHealthReflectsEngineState(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "idle")

	ts.engine.state = trader.StateFaulted
	rec = ts.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "faulted")
}

func TestTransactionsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.SaveTransaction(&database.Transaction{
		Hash:   "0x01",
		Action: "BUY",
		Status: true,
	}))

	rec := ts.do(t, "GET", "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "0x01")
}
