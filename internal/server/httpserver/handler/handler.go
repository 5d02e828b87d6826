package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Ledger is the account API served over HTTP.
type Ledger interface {
	Create(ctx context.Context, id domain.AccountID, initial decimal.Decimal) error
	Deposit(ctx context.Context, amount decimal.Decimal, id domain.AccountID) error
	Withdraw(ctx context.Context, amount decimal.Decimal, id domain.AccountID) error
	Transfer(ctx context.Context, amount decimal.Decimal, from, to domain.AccountID) (*domain.TransferReceipt, error)
	Read(ctx context.Context, id domain.AccountID) (domain.Account, error)
}

// Locks exposes lock registry maintenance to the admin API.
type Locks interface {
	Stats() lockreg.Stats
	Sweep() int
}

// Store reports balance store health.
type Store interface {
	Name() string
	Ping(ctx context.Context) error
	BreakerState() string
}

// Handler serves the ledger API.
type Handler struct {
	ledger Ledger
	locks  Locks
	store  Store
	logger logger.Logger
}

// New creates a Handler. store may be nil, in which case /ready only
// reports that the process is up.
func New(ledger Ledger, locks Locks, store Store, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		ledger: ledger,
		locks:  locks,
		store:  store,
		logger: log,
	}
}

// Route describes one endpoint.
type Route struct {
	Pattern string
	Admin   bool
	Handler http.HandlerFunc
}

// Routes returns every endpoint except /metrics, which the router serves
// from the metrics registry.
func (h *Handler) Routes() []Route {
	return []Route{
		{Pattern: "GET /health", Handler: h.handleHealth},
		{Pattern: "GET /ready", Handler: h.handleReady},

		{Pattern: "POST /accounts", Handler: h.handleCreateAccount},
		{Pattern: "GET /accounts/{id}", Handler: h.handleGetAccount},
		{Pattern: "POST /accounts/{id}/deposit", Handler: h.handleDeposit},
		{Pattern: "POST /accounts/{id}/withdraw", Handler: h.handleWithdraw},
		{Pattern: "POST /transfers", Handler: h.handleTransfer},

		{Pattern: "GET /admin/v1/locks", Admin: true, Handler: h.handleLockStats},
		{Pattern: "POST /admin/v1/locks/sweep", Admin: true, Handler: h.handleLockSweep},
	}
}

// ServeHTTP serves every route on a private mux. The router registers the
// routes individually instead, so this is mostly useful in tests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.HandleFunc(rt.Pattern, rt.Handler)
	}
	mux.ServeHTTP(w, r)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	response := NewResponse(logger.RequestIDFromContext(r.Context()), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	WriteError(w, logger.RequestIDFromContext(r.Context()), status, code, message, details)
}

// WriteError writes an error envelope. Middleware uses it for responses
// produced before a handler runs.
func WriteError(w http.ResponseWriter, requestID string, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	if domain.TemporaryCode(code) {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, details))
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		status := de.Status()
		var details any
		switch {
		case status >= http.StatusInternalServerError:
			// Backend details stay in the log.
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
		case de.Details != "":
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrBadRequest.WithDetails("request body is empty")
		}
		return domain.ErrBadRequest.WithDetails(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// pathAccountID parses the {id} path segment.
func pathAccountID(r *http.Request) (domain.AccountID, error) {
	return domain.ParseAccountID(r.PathValue("id"))
}
