package handler

import (
	"time"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CreateAccountRequest is the request body for POST /accounts.
type CreateAccountRequest struct {
	AccountID      domain.AccountID `json:"account_id"`
	InitialBalance string           `json:"initial_balance"`
}

// AmountRequest is the request body for deposit and withdraw.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// TransferRequest is the request body for POST /transfers.
type TransferRequest struct {
	FromAccountID domain.AccountID `json:"from_account_id"`
	ToAccountID   domain.AccountID `json:"to_account_id"`
	Amount        string           `json:"amount"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountID domain.AccountID `json:"account_id"`
	Balance   string           `json:"balance"`
}

func newAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{AccountID: a.ID, Balance: a.Balance.String()}
}

// TransferResponse is the response body for POST /transfers.
type TransferResponse struct {
	TransactionID string           `json:"transaction_id"`
	FromAccountID domain.AccountID `json:"from_account_id"`
	ToAccountID   domain.AccountID `json:"to_account_id"`
	Amount        string           `json:"amount"`
	Message       string           `json:"message"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string         `json:"status"`
	Time   string         `json:"time"`
	Build  buildinfo.Info `json:"build"`
}

// ReadyResponse is the response body for GET /ready.
type ReadyResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
	Breaker string `json:"breaker,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SweepResponse is the response body for POST /admin/v1/locks/sweep.
type SweepResponse struct {
	Evicted int           `json:"evicted"`
	Stats   lockreg.Stats `json:"stats"`
}
