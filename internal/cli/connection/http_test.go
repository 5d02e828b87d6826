package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewHTTPClient_BaseURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"localhost:5080", "http://localhost:5080"},
		{"http://ledger:5080/", "http://ledger:5080"},
		{"https://ledger", "https://ledger"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(Options{Server: tt.server}).BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestHTTPClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/accounts/1/deposit" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("request id header missing")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"amount":"50"`) {
			t.Errorf("body = %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"code":"OK","message":"Success","data":{"account_id":1,"balance":"150"}}`)
	}))
	defer srv.Close()

	var out struct {
		AccountID int64  `json:"account_id"`
		Balance   string `json:"balance"`
	}
	c := NewHTTPClient(Options{Server: srv.URL})
	if err := c.Post(context.Background(), "/accounts/1/deposit", map[string]string{"amount": "50"}, &out); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if out.AccountID != 1 || out.Balance != "150" {
		t.Errorf("out = %+v", out)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"code":       "LM-ACCT-4220",
			"message":    "insufficient balance",
			"details":    "account 1 holds 10, needs 20",
			"request_id": "req-1",
		})
	}))
	defer srv.Close()

	err := NewHTTPClient(Options{Server: srv.URL}).Get(context.Background(), "/accounts/1", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != "LM-ACCT-4220" || apiErr.RequestID != "req-1" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Error() != "[LM-ACCT-4220] insufficient balance: account 1 holds 10, needs 20" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestHTTPClient_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPClient(Options{Server: srv.URL}).Get(context.Background(), "/health", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Errorf("error = %v, want 502 APIError", err)
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if err := NewHTTPClient(Options{Server: url}).Get(context.Background(), "/health", nil); err == nil {
		t.Error("Get() should fail when the server is down")
	}
}

func TestHTTPClient_FailureWithData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"code":"OK","message":"Success","data":{"status":"not_ready","error":"dial tcp: refused"}}`)
	}))
	defer srv.Close()

	var out struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	err := NewHTTPClient(Options{Server: srv.URL}).Get(context.Background(), "/ready", &out)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "HTTP-503" {
		t.Fatalf("error = %v, want HTTP-503 APIError", err)
	}
	if out.Status != "not_ready" || out.Error != "dial tcp: refused" {
		t.Errorf("out = %+v", out)
	}
}
