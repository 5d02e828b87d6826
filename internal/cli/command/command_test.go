package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/ledgermesh-go/internal/cli/connection"
	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/storage/memory"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

type testServer struct {
	*httptest.Server
	ledger     *service.LedgerService
	configPath string
}

// newTestServer serves the real HTTP handler over an in-memory ledger.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	locks := lockreg.New()
	ledger := service.NewLedgerService(memory.New(), locks, service.WithLedgerLogger(logger.Nop()))
	srv := httptest.NewServer(handler.New(ledger, locks, nil, logger.Nop()))
	t.Cleanup(srv.Close)
	return &testServer{
		Server:     srv,
		ledger:     ledger,
		configPath: filepath.Join(t.TempDir(), "cli.yaml"),
	}
}

// run executes the CLI against the test server and returns its stdout.
func (s *testServer) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	full := append([]string{"ledgermesh-cli", "--config", s.configPath, "--server", s.URL}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (s *testServer) balance(t *testing.T, id domain.AccountID) string {
	t.Helper()
	acct, err := s.ledger.Read(context.Background(), id)
	require.NoError(t, err)
	return acct.Balance.String()
}

func TestApp(t *testing.T) {
	app := App()
	assert.Equal(t, "ledgermesh-cli", app.Name)

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"account", "transfer", "system", "config"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.run(t, "account", "create", "1", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "ACCOUNT")
	assert.Contains(t, out, "100")

	_, err = srv.run(t, "account", "deposit", "1", "50")
	require.NoError(t, err)
	assert.Equal(t, "150", srv.balance(t, 1))

	out, err = srv.run(t, "account", "withdraw", "1", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "130")

	out, err = srv.run(t, "--output", "json", "account", "get", "1")
	require.NoError(t, err)
	var view AccountView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, AccountView{AccountID: 1, Balance: "130"}, view)
}

func TestAccount_ServerErrors(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.run(t, "account", "create", "1", "10")
	require.NoError(t, err)

	tests := []struct {
		name   string
		args   []string
		status int
		code   string
	}{
		{"duplicate", []string{"account", "create", "1", "10"}, http.StatusConflict, "LM-ACCT-4090"},
		{"missing", []string{"account", "get", "7"}, http.StatusNotFound, "LM-ACCT-4040"},
		{"low balance", []string{"account", "withdraw", "1", "500"}, http.StatusUnprocessableEntity, "LM-ACCT-4220"},
		{"bad amount", []string{"account", "deposit", "1", "ten"}, http.StatusBadRequest, "LM-ARG-4001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.run(t, tt.args...)
			var apiErr *connection.APIError
			require.True(t, errors.As(err, &apiErr), "error = %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
	assert.Equal(t, "10", srv.balance(t, 1))
}

func TestAccount_ArgumentErrors(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.run(t, "account", "get")
	assert.Error(t, err)

	_, err = srv.run(t, "account", "get", "abc")
	assert.True(t, errors.Is(err, domain.ErrInvalidAccountNumber), "error = %v", err)
}

func TestTransfer(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, srv.ledger.Create(ctx, 1, decimal.NewFromInt(100)))
	require.NoError(t, srv.ledger.Create(ctx, 2, decimal.NewFromInt(5)))

	out, err := srv.run(t, "transfer", "1", "2", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Equal(t, "70", srv.balance(t, 1))
	assert.Equal(t, "35", srv.balance(t, 2))

	out, err = srv.run(t, "-o", "yaml", "transfer", "2", "1", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "from_account_id: 2")
	assert.Contains(t, out, "transaction_id:")

	_, err = srv.run(t, "transfer", "1", "1", "5")
	var apiErr *connection.APIError
	require.True(t, errors.As(err, &apiErr), "error = %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestSystemCommands(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.ledger.Create(context.Background(), 1, decimal.NewFromInt(10)))

	out, err := srv.run(t, "system", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, srv.URL)

	out, err = srv.run(t, "system", "ready")
	require.NoError(t, err)
	assert.Contains(t, out, "ready")

	out, err = srv.run(t, "-o", "yaml", "system", "locks")
	require.NoError(t, err)
	assert.Contains(t, out, "max_entries:")

	out, err = srv.run(t, "-o", "json", "system", "sweep")
	require.NoError(t, err)
	var sweep SweepView
	require.NoError(t, json.Unmarshal([]byte(out), &sweep))
	assert.Equal(t, 0, sweep.Stats.Entries)
}

func TestSystemReady_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"code":"OK","message":"Success","data":{"status":"not_ready","storage":"redis","error":"connection refused"}}`)
	}))
	defer srv.Close()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run([]string{"ledgermesh-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml"), "--server", srv.URL, "system", "ready"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, out.String(), "not_ready")
}

func TestConfigInitAndShow(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, srv.configPath)

	data, err := os.ReadFile(srv.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server: "+srv.URL)

	_, err = srv.run(t, "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")

	_, err = srv.run(t, "config", "init", "--force")
	assert.NoError(t, err)

	app := App()
	var show bytes.Buffer
	app.Writer = &show
	require.NoError(t, app.Run([]string{"ledgermesh-cli", "--config", srv.configPath, "-o", "yaml", "config", "show"}))
	assert.Contains(t, show.String(), "server: "+srv.URL)
	assert.True(t, strings.Contains(show.String(), "timeout: 30s"), show.String())
}

func TestUnknownOutputFormat(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.run(t, "-o", "xml", "system", "health")
	assert.Error(t, err)
}
