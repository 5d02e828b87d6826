package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id BIGINT PRIMARY KEY,
	balance    NUMERIC NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	sqlFetchBalance  = `SELECT balance::text FROM accounts WHERE account_id = $1`
	sqlUpdateBalance = `UPDATE accounts SET balance = $2::numeric, updated_at = now() WHERE account_id = $1`
	sqlInsertAccount = `INSERT INTO accounts (account_id, balance) VALUES ($1, $2::numeric) ON CONFLICT (account_id) DO NOTHING`
)

// PostgresStore keeps balances in the accounts table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewPostgresStore opens a connection pool and optionally applies the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, log logger.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "postgres")

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.HealthCheckTick > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckTick
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	s := &PostgresStore{pool: pool, logger: log}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.ApplySchema {
		if _, err := pool.Exec(ctx, accountsSchema); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: apply schema: %w", err)
		}
	}

	log.Info("postgres store connected",
		"url", logger.RedactString(cfg.DSN),
		"max_conns", poolCfg.MaxConns)
	return s, nil
}

// Fetch returns the stored account.
func (s *PostgresStore) Fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx, sqlFetchBalance, int64(id)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("postgres: fetch %s: %w", id, err)
	}
	bal, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("postgres: decode balance of %s: %w", id, err)
	}
	return domain.Account{ID: id, Balance: bal}, true, nil
}

// Persist overwrites the balance of an existing account.
func (s *PostgresStore) Persist(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx, sqlUpdateBalance, int64(id), balance.String())
	if err != nil {
		return fmt.Errorf("postgres: update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Insert adds a new account.
func (s *PostgresStore) Insert(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx, sqlInsertAccount, int64(id), balance.String())
	if err != nil {
		return fmt.Errorf("postgres: insert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyExists
	}
	return nil
}

// Ping checks that a connection can be acquired.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
