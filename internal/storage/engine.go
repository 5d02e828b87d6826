package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
	"github.com/yndnr/ledgermesh-go/internal/storage/memory"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Engine is an opened balance store backend. It implements
// service.BalanceStore and owns the backend's lifecycle.
type Engine struct {
	name    string
	store   service.BalanceStore
	breaker *BreakerStore
	ping    func(context.Context) error
	closer  io.Closer
	logger  logger.Logger
}

// Open creates the backend selected by cfg.Engine. reg may be nil; when set
// it receives backend metrics (Badger only).
func Open(ctx context.Context, cfg Config, log logger.Logger, reg prometheus.Registerer) (*Engine, error) {
	if log == nil {
		log = logger.Default()
	}
	name := cfg.Engine
	if name == "" {
		name = EngineMemory
	}

	e := &Engine{
		name:   name,
		ping:   func(context.Context) error { return nil },
		logger: log.With("component", "storage"),
	}

	switch name {
	case EngineMemory:
		e.store = memory.New()

	case EngineBadger:
		s, err := NewBadgerStore(cfg.Badger, log)
		if err != nil {
			return nil, err
		}
		if reg != nil {
			s.RegisterMetrics(reg)
		}
		e.store, e.ping, e.closer = s, s.Ping, s

	case EngineRedis:
		s, err := NewRedisStore(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		e.store, e.ping, e.closer = s, s.Ping, s

	case EnginePostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		e.store, e.ping, e.closer = s, s.Ping, s

	default:
		return nil, fmt.Errorf("storage: unknown engine %q", name)
	}

	// The in-process map cannot fail, so it is never wrapped.
	if cfg.Breaker.Enabled && name != EngineMemory {
		e.breaker = NewBreakerStore(name, e.store, cfg.Breaker, log)
		e.store = e.breaker
	}

	if cfg.SeedSampleAccounts {
		added, err := Seed(ctx, e.store, SampleAccounts())
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.logger.Info("sample accounts seeded", "added", added)
	}

	e.logger.Info("storage engine opened", "engine", name, "breaker", e.breaker != nil)
	return e, nil
}

// Name returns the backend name.
func (e *Engine) Name() string {
	return e.name
}

// Fetch implements service.BalanceStore.
func (e *Engine) Fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	return e.store.Fetch(ctx, id)
}

// Persist implements service.BalanceStore.
func (e *Engine) Persist(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	return e.store.Persist(ctx, id, balance)
}

// Insert implements service.BalanceStore.
func (e *Engine) Insert(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	return e.store.Insert(ctx, id, balance)
}

// Ping reports whether the backend is reachable. An open circuit breaker
// counts as unavailable.
func (e *Engine) Ping(ctx context.Context) error {
	if e.breaker != nil && e.breaker.State() == "open" {
		return domain.ErrServiceUnavailable.WithDetails("balance store circuit breaker open")
	}
	return e.ping(ctx)
}

// BreakerState returns the circuit breaker state, or "" when disabled.
func (e *Engine) BreakerState() string {
	if e.breaker == nil {
		return ""
	}
	return e.breaker.State()
}

// Close releases the backend.
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	if err := e.closer.Close(); err != nil && !errors.Is(err, ErrClosed) {
		e.logger.Error("close storage engine failed", "error", err)
		return err
	}
	e.logger.Info("storage engine closed", "engine", e.name)
	return nil
}
