package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
	"github.com/yndnr/ledgermesh-go/internal/storage/memory"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

type fakeStore struct {
	err error
}

func (s *fakeStore) Name() string                   { return "fake" }
func (s *fakeStore) Ping(ctx context.Context) error { return s.err }
func (s *fakeStore) BreakerState() string           { return "closed" }

type testEnv struct {
	handler *Handler
	ledger  *service.LedgerService
	locks   *lockreg.Registry
	store   *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	locks := lockreg.New()
	ledger := service.NewLedgerService(memory.New(), locks, service.WithLedgerLogger(logger.Nop()))
	store := &fakeStore{}
	return &testEnv{
		handler: New(ledger, locks, store, logger.Nop()),
		ledger:  ledger,
		locks:   locks,
		store:   store,
	}
}

func (e *testEnv) seed(t *testing.T, id domain.AccountID, balance int64) {
	t.Helper()
	if err := e.ledger.Create(context.Background(), id, decimal.NewFromInt(balance)); err != nil {
		t.Fatalf("Create(%d) error = %v", id, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, resp
}

func dataField(t *testing.T, resp Response, key string) any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v, want object", resp.Data)
	}
	return data[key]
}

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/accounts", `{"account_id": 7, "initial_balance": "1000.50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if resp.Code != "OK" {
		t.Errorf("code = %q, want OK", resp.Code)
	}
	if got := dataField(t, resp, "balance"); got != "1000.5" {
		t.Errorf("balance = %v, want 1000.5", got)
	}
	if loc := rec.Header().Get("Location"); loc != "/accounts/7" {
		t.Errorf("Location = %q", loc)
	}

	rec, resp = env.do(t, http.MethodPost, "/accounts", `{"account_id": 7, "initial_balance": "5"}`)
	if rec.Code != http.StatusConflict || resp.Code != "LM-ACCT-4090" {
		t.Errorf("duplicate create = %d %s, want 409 LM-ACCT-4090", rec.Code, resp.Code)
	}
}

func TestCreateAccount_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"negative id", `{"account_id": -5, "initial_balance": "1000"}`, http.StatusBadRequest, "LM-ARG-4002"},
		{"missing id", `{"initial_balance": "1000"}`, http.StatusBadRequest, "LM-ARG-4002"},
		{"negative amount", `{"account_id": 10, "initial_balance": "-5"}`, http.StatusBadRequest, "LM-ARG-4001"},
		{"amount not a number", `{"account_id": 10, "initial_balance": "ten"}`, http.StatusBadRequest, "LM-ARG-4001"},
		{"missing amount", `{"account_id": 10}`, http.StatusBadRequest, "LM-ARG-4001"},
		{"unknown field", `{"account_id": 10, "initial_balance": "5", "owner": "x"}`, http.StatusBadRequest, "LM-SYS-4000"},
		{"broken json", `{"account_id": `, http.StatusBadRequest, "LM-SYS-4000"},
		{"empty body", ``, http.StatusBadRequest, "LM-SYS-4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, resp := env.do(t, http.MethodPost, "/accounts", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if rec.Header().Get("X-Error-Code") != tt.code {
				t.Errorf("X-Error-Code = %q, want %q", rec.Header().Get("X-Error-Code"), tt.code)
			}
		})
	}
}

func TestGetAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1, 10000)

	rec, resp := env.do(t, http.MethodGet, "/accounts/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := dataField(t, resp, "account_id"); got != float64(1) {
		t.Errorf("account_id = %v, want 1", got)
	}
	if got := dataField(t, resp, "balance"); got != "10000" {
		t.Errorf("balance = %v, want 10000", got)
	}

	rec, resp = env.do(t, http.MethodGet, "/accounts/99", "")
	if rec.Code != http.StatusNotFound || resp.Code != "LM-ACCT-4040" {
		t.Errorf("missing account = %d %s, want 404 LM-ACCT-4040", rec.Code, resp.Code)
	}

	rec, resp = env.do(t, http.MethodGet, "/accounts/abc", "")
	if rec.Code != http.StatusBadRequest || resp.Code != "LM-ARG-4002" {
		t.Errorf("bad id = %d %s, want 400 LM-ARG-4002", rec.Code, resp.Code)
	}
}

func TestDepositWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1, 10000)

	rec, resp := env.do(t, http.MethodPost, "/accounts/1/deposit", `{"amount": "500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := dataField(t, resp, "balance"); got != "10500" {
		t.Errorf("balance after deposit = %v, want 10500", got)
	}

	rec, resp = env.do(t, http.MethodPost, "/accounts/1/withdraw", `{"amount": "1500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := dataField(t, resp, "balance"); got != "9000" {
		t.Errorf("balance after withdraw = %v, want 9000", got)
	}

	rec, resp = env.do(t, http.MethodPost, "/accounts/1/withdraw", `{"amount": "20000"}`)
	if rec.Code != http.StatusUnprocessableEntity || resp.Code != "LM-ACCT-4220" {
		t.Errorf("overdraft = %d %s, want 422 LM-ACCT-4220", rec.Code, resp.Code)
	}
	if resp.Details == nil {
		t.Error("low balance response should carry details")
	}

	rec, resp = env.do(t, http.MethodPost, "/accounts/1/deposit", `{"amount": "1"}`)
	if rec.Code != http.StatusBadRequest || resp.Code != "LM-ARG-4001" {
		t.Errorf("deposit at the minimum = %d %s, want 400 LM-ARG-4001", rec.Code, resp.Code)
	}

	acct, err := env.ledger.Read(context.Background(), 1)
	if err != nil || !acct.Balance.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("final balance = %v, %v, want 9000", acct.Balance, err)
	}
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1, 10000)
	env.seed(t, 2, 15000)

	rec, resp := env.do(t, http.MethodPost, "/transfers", `{"from_account_id": 1, "to_account_id": 2, "amount": "1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	txID, _ := dataField(t, resp, "transaction_id").(string)
	if txID == "" {
		t.Fatal("transaction_id is empty")
	}
	if msg := dataField(t, resp, "message"); msg != "transaction "+txID+" completed" {
		t.Errorf("message = %v", msg)
	}
	if got := dataField(t, resp, "amount"); got != "1000" {
		t.Errorf("amount = %v, want 1000", got)
	}

	for id, want := range map[domain.AccountID]int64{1: 9000, 2: 16000} {
		acct, err := env.ledger.Read(context.Background(), id)
		if err != nil || !acct.Balance.Equal(decimal.NewFromInt(want)) {
			t.Errorf("account %d = %v, %v, want %d", id, acct.Balance, err, want)
		}
	}
}

func TestTransfer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"same account", `{"from_account_id": 1, "to_account_id": 1, "amount": "10"}`, http.StatusBadRequest, "LM-ARG-4002"},
		{"missing destination", `{"from_account_id": 1, "to_account_id": 9, "amount": "10"}`, http.StatusNotFound, "LM-ACCT-4040"},
		{"low balance", `{"from_account_id": 1, "to_account_id": 2, "amount": "20000"}`, http.StatusUnprocessableEntity, "LM-ACCT-4220"},
		{"bad amount", `{"from_account_id": 1, "to_account_id": 2, "amount": "0"}`, http.StatusBadRequest, "LM-ARG-4001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, 1, 10000)
			env.seed(t, 2, 15000)

			rec, resp := env.do(t, http.MethodPost, "/transfers", tt.body)
			if rec.Code != tt.status || resp.Code != tt.code {
				t.Errorf("got %d %s, want %d %s", rec.Code, resp.Code, tt.status, tt.code)
			}
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || dataField(t, resp, "status") != "healthy" {
		t.Errorf("health = %d %v", rec.Code, resp.Data)
	}
	if _, ok := dataField(t, resp, "build").(map[string]any); !ok {
		t.Error("health should report build info")
	}

	rec, resp = env.do(t, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK || dataField(t, resp, "storage") != "fake" {
		t.Errorf("ready = %d %v", rec.Code, resp.Data)
	}

	env.store.err = errors.New("connection refused")
	rec, resp = env.do(t, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with store down = %d, want 503", rec.Code)
	}
	if dataField(t, resp, "status") != "not_ready" {
		t.Errorf("status = %v, want not_ready", dataField(t, resp, "status"))
	}
}

func TestLockAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1, 100)
	env.seed(t, 2, 100)

	rec, resp := env.do(t, http.MethodGet, "/admin/v1/locks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := dataField(t, resp, "entries"); got != float64(2) {
		t.Errorf("entries = %v, want 2", got)
	}
	if got := dataField(t, resp, "pinned"); got != float64(0) {
		t.Errorf("pinned = %v, want 0", got)
	}

	rec, resp = env.do(t, http.MethodPost, "/admin/v1/locks/sweep", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := dataField(t, resp, "evicted"); got != float64(2) {
		t.Errorf("evicted = %v, want 2", got)
	}
	if env.locks.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", env.locks.Len())
	}
}

type failingLedger struct {
	Ledger
	err error
}

func (f failingLedger) Read(context.Context, domain.AccountID) (domain.Account, error) {
	return domain.Account{}, f.err
}

func TestServiceErrorsHideBackendDetails(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"store failure", domain.ErrStoreFailure.WithDetails("dial tcp 10.0.0.5:5432"), http.StatusInternalServerError, "LM-SYS-5001"},
		{"breaker open", domain.ErrServiceUnavailable.WithDetails("balance store circuit breaker open"), http.StatusServiceUnavailable, "LM-SYS-5030"},
		{"retries exhausted", domain.ErrRetriesExhausted, http.StatusServiceUnavailable, "LM-LOCK-5031"},
		{"cancelled", domain.ErrCancelled.WithDetails("deadline exceeded"), http.StatusRequestTimeout, "LM-SYS-4080"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "LM-SYS-5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(failingLedger{err: tt.err}, lockreg.New(), nil, logger.Nop())
			req := httptest.NewRequest(http.MethodGet, "/accounts/1", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.code) {
				t.Errorf("body %s should carry code %s", body, tt.code)
			}
			if tt.status >= 500 && strings.Contains(body, "10.0.0.5") {
				t.Errorf("backend details leaked: %s", body)
			}
			if tt.status == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") == "" {
				t.Error("503 responses should carry Retry-After")
			}
		})
	}
}
