package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// BreakerStore guards a balance store with a circuit breaker. While the
// breaker is open calls fail fast with domain.ErrServiceUnavailable.
//
// Missing or duplicate accounts and cancelled contexts are answers, not
// backend faults, and do not count against the breaker.
type BreakerStore struct {
	next    service.BalanceStore
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

type fetchResult struct {
	acct  domain.Account
	found bool
}

// NewBreakerStore wraps next. name identifies the breaker in logs.
func NewBreakerStore(name string, next service.BalanceStore, cfg BreakerConfig, log logger.Logger) *BreakerStore {
	if log == nil {
		log = logger.Default()
	}
	s := &BreakerStore{next: next, logger: log.With("component", "breaker", "store", name)}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests == 0 || counts.Requests < cfg.MinRequests || cfg.FailureRatio <= 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrKeyNotFound) ||
				errors.Is(err, ErrKeyExists) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				s.logger.Error("circuit breaker opened", "from", from.String())
			case gobreaker.StateHalfOpen:
				s.logger.Info("circuit breaker half-open", "from", from.String())
			case gobreaker.StateClosed:
				s.logger.Info("circuit breaker closed", "from", from.String())
			}
		},
	}
	s.breaker = gobreaker.NewCircuitBreaker(settings)
	return s
}

// Fetch implements service.BalanceStore.
func (s *BreakerStore) Fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		acct, found, err := s.next.Fetch(ctx, id)
		return fetchResult{acct: acct, found: found}, err
	})
	if err != nil {
		return domain.Account{}, false, s.mapErr(err)
	}
	r := res.(fetchResult)
	return r.acct, r.found, nil
}

// Persist implements service.BalanceStore.
func (s *BreakerStore) Persist(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Persist(ctx, id, balance)
	})
	return s.mapErr(err)
}

// Insert implements service.BalanceStore.
func (s *BreakerStore) Insert(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.next.Insert(ctx, id, balance)
	})
	return s.mapErr(err)
}

// State returns the breaker state name (closed, half-open, open).
func (s *BreakerStore) State() string {
	return s.breaker.State().String()
}

func (s *BreakerStore) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState):
		s.logger.Warn("store call rejected, circuit breaker open")
		return domain.ErrServiceUnavailable.WithDetails("balance store circuit breaker open").WithCause(err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.ErrServiceUnavailable.WithDetails("balance store recovering").WithCause(err)
	default:
		return err
	}
}
