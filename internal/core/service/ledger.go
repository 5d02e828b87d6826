package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// BalanceStore is the persistence collaborator of LedgerService.
// Each call is individually atomic; LedgerService never retries a failed call.
type BalanceStore interface {
	// Fetch returns the account and true, or false if it does not exist.
	Fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error)

	// Persist overwrites the balance of an existing account.
	Persist(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error

	// Insert creates a new account record.
	Insert(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error
}

// OperationObserver receives the outcome of every ledger operation.
// outcome is "ok" or the domain error code.
type OperationObserver interface {
	ObserveOperation(op, outcome string, took time.Duration)
}

// Operation names reported to observers and used as span names.
const (
	OpCreate   = "create"
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpTransfer = "transfer"
	OpRead     = "read"
)

// LedgerService orchestrates balance mutations under per-account locks.
type LedgerService struct {
	store     BalanceStore
	locks     *lockreg.Registry
	minAmount decimal.Decimal
	log       logger.Logger
	tracer    trace.Tracer
	observer  OperationObserver
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithMinAmount sets the exclusive lower bound for amounts.
func WithMinAmount(d decimal.Decimal) LedgerOption {
	return func(s *LedgerService) { s.minAmount = d }
}

// WithLedgerLogger sets the service logger.
func WithLedgerLogger(l logger.Logger) LedgerOption {
	return func(s *LedgerService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) LedgerOption {
	return func(s *LedgerService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithOperationObserver installs an observer (metrics).
func WithOperationObserver(o OperationObserver) LedgerOption {
	return func(s *LedgerService) { s.observer = o }
}

// NewLedgerService creates a LedgerService that serialises access to store
// through locks.
func NewLedgerService(store BalanceStore, locks *lockreg.Registry, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:     store,
		locks:     locks,
		minAmount: domain.DefaultMinAmount,
		log:       logger.Nop(),
		tracer:    noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "ledger")
	return s
}

// Locks returns the lock registry used by the service.
func (s *LedgerService) Locks() *lockreg.Registry {
	return s.locks
}

// ============================================================================
// Create
// ============================================================================

// Create opens account id with the given initial balance.
func (s *LedgerService) Create(ctx context.Context, id domain.AccountID, initial decimal.Decimal) (err error) {
	ctx, done := s.begin(ctx, OpCreate, id)
	defer func() { done(err) }()

	// 1. Validate input
	if err := domain.ValidateAmount(initial, s.minAmount); err != nil {
		return err
	}
	if !id.Valid() {
		return domain.ErrInvalidAccountNumber.WithDetails(fmt.Sprintf("account id %s must be positive", id))
	}

	// 2. Best-effort existence check
	if _, ok, err := s.fetch(ctx, id); err != nil {
		return err
	} else if ok {
		return alreadyExists(id)
	}

	// 3. Re-check and insert under the account lock
	return s.locks.WithWrite(ctx, id, func() error {
		if _, ok, err := s.fetch(ctx, id); err != nil {
			return err
		} else if ok {
			return alreadyExists(id)
		}
		if err := s.store.Insert(ctx, id, initial); err != nil {
			return storeFailure("insert", id, err)
		}
		s.log.Info("account created", "account_id", id.String(), "balance", initial.String())
		return nil
	})
}

// ============================================================================
// Deposit / Withdraw
// ============================================================================

// Deposit adds amount to the balance of id.
func (s *LedgerService) Deposit(ctx context.Context, amount decimal.Decimal, id domain.AccountID) (err error) {
	ctx, done := s.begin(ctx, OpDeposit, id)
	defer func() { done(err) }()

	if err := domain.ValidateAmount(amount, s.minAmount); err != nil {
		return err
	}
	if err := s.mustExist(ctx, id); err != nil {
		return err
	}

	return s.locks.WithWrite(ctx, id, func() error {
		acct, err := s.fetchLocked(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.Persist(ctx, id, acct.Balance.Add(amount)); err != nil {
			return storeFailure("persist", id, err)
		}
		return nil
	})
}

// Withdraw takes amount from the balance of id. The balance is left
// unchanged if it is lower than amount.
func (s *LedgerService) Withdraw(ctx context.Context, amount decimal.Decimal, id domain.AccountID) (err error) {
	ctx, done := s.begin(ctx, OpWithdraw, id)
	defer func() { done(err) }()

	if err := domain.ValidateAmount(amount, s.minAmount); err != nil {
		return err
	}
	if err := s.mustExist(ctx, id); err != nil {
		return err
	}

	return s.locks.WithWrite(ctx, id, func() error {
		acct, err := s.fetchLocked(ctx, id)
		if err != nil {
			return err
		}
		if !acct.CanDebit(amount) {
			return lowBalance(id, acct.Balance, amount)
		}
		if err := s.store.Persist(ctx, id, acct.Balance.Sub(amount)); err != nil {
			return storeFailure("persist", id, err)
		}
		return nil
	})
}

// ============================================================================
// Transfer
// ============================================================================

// Transfer moves amount from one account to another as a single unit and
// returns a receipt.
//
// If persisting the destination fails after the source was persisted, the
// debit stays applied; the balance store is expected to make Persist durable
// and the error is surfaced as ErrStoreFailure.
func (s *LedgerService) Transfer(ctx context.Context, amount decimal.Decimal, from, to domain.AccountID) (receipt *domain.TransferReceipt, err error) {
	ctx, done := s.begin(ctx, OpTransfer, from, to)
	defer func() { done(err) }()

	// 1. Validate input
	if from == to {
		return nil, domain.ErrInvalidAccountNumber.WithDetails("source and destination must differ")
	}
	if err := domain.ValidateAmount(amount, s.minAmount); err != nil {
		return nil, err
	}

	// 2. Both accounts must exist
	if err := s.mustExist(ctx, from); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, to); err != nil {
		return nil, err
	}

	txID := newTxID(from, to)
	log := s.log.With("transaction_id", txID)

	// 3. Move funds under both locks
	err = s.locks.WithPair(ctx, from, to, func() error {
		src, err := s.fetchLocked(ctx, from)
		if err != nil {
			return err
		}
		if !src.CanDebit(amount) {
			return lowBalance(from, src.Balance, amount)
		}
		dst, err := s.fetchLocked(ctx, to)
		if err != nil {
			return err
		}

		if err := s.store.Persist(ctx, from, src.Balance.Sub(amount)); err != nil {
			return storeFailure("persist source", from, err)
		}
		if err := s.store.Persist(ctx, to, dst.Balance.Add(amount)); err != nil {
			log.Error("destination persist failed after source debit",
				"from", from.String(), "to", to.String(), "amount", amount.String(), "error", err)
			return storeFailure("persist destination", to, err)
		}
		return nil
	})
	if err != nil {
		log.Debug("transfer rejected", "from", from.String(), "to", to.String(), "error", err)
		return nil, err
	}

	log.Info("transfer completed", "from", from.String(), "to", to.String(), "amount", amount.String())
	return &domain.TransferReceipt{TransactionID: txID, From: from, To: to, Amount: amount}, nil
}

// ============================================================================
// Read
// ============================================================================

// Read returns the account under its shared lock. Missing accounts are
// rejected before a registry entry is taken for them.
func (s *LedgerService) Read(ctx context.Context, id domain.AccountID) (acct domain.Account, err error) {
	ctx, done := s.begin(ctx, OpRead, id)
	defer func() { done(err) }()

	if err := s.mustExist(ctx, id); err != nil {
		return domain.Account{}, err
	}

	err = s.locks.WithRead(ctx, id, func() error {
		var ferr error
		acct, ferr = s.fetchLocked(ctx, id)
		return ferr
	})
	return acct, err
}

// ============================================================================
// Helpers
// ============================================================================

func (s *LedgerService) fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	acct, ok, err := s.store.Fetch(ctx, id)
	if err != nil {
		return domain.Account{}, false, storeFailure("fetch", id, err)
	}
	return acct, ok, nil
}

func (s *LedgerService) mustExist(ctx context.Context, id domain.AccountID) error {
	_, ok, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(id)
	}
	return nil
}

// fetchLocked is the authoritative read, made while holding id's lock.
func (s *LedgerService) fetchLocked(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	acct, ok, err := s.fetch(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok {
		return domain.Account{}, notFound(id)
	}
	return acct, nil
}

// begin starts a span for op and returns a completion func that ends it and
// reports the outcome.
func (s *LedgerService) begin(ctx context.Context, op string, ids ...domain.AccountID) (context.Context, func(error)) {
	attrs := make([]attribute.KeyValue, 0, len(ids))
	for i, id := range ids {
		attrs = append(attrs, attribute.Int64(fmt.Sprintf("ledger.account.%d", i), int64(id)))
	}
	ctx, span := s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = domain.GetErrorCode(err)
			if outcome == "" {
				outcome = domain.ErrInternalServer.Code
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("ledger.outcome", outcome))
		span.End()
		if s.observer != nil {
			s.observer.ObserveOperation(op, outcome, time.Since(start))
		}
	}
}

// newTxID builds a diagnostic transaction id: a time-ordered ULID followed
// by the account ids involved. It is not an idempotency key.
func newTxID(ids ...domain.AccountID) string {
	var b strings.Builder
	b.WriteString(ulid.Make().String())
	for _, id := range ids {
		b.WriteByte('_')
		b.WriteString(id.String())
	}
	return b.String()
}

func notFound(id domain.AccountID) error {
	return domain.ErrAccountNotFound.WithDetails("account_id: " + id.String())
}

func alreadyExists(id domain.AccountID) error {
	return domain.ErrAccountAlreadyExists.WithDetails("account_id: " + id.String())
}

func lowBalance(id domain.AccountID, balance, amount decimal.Decimal) error {
	return domain.ErrLowBalance.WithDetails(
		fmt.Sprintf("account %s holds %s, needs %s", id, balance, amount))
}

// storeFailure wraps a balance store error. Domain errors raised by the
// store pass through unchanged, so an open circuit breaker still reaches
// callers as ErrServiceUnavailable (503, retryable).
func storeFailure(op string, id domain.AccountID, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrStoreFailure.WithDetails(fmt.Sprintf("%s account %s", op, id)).WithCause(err)
}
