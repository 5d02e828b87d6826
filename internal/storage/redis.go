package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// RedisStore keeps balances as decimal strings under "<prefix>acct:<id>".
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  logger.Logger
}

// NewRedisStore connects to cfg.Addr and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, log logger.Logger) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	if log == nil {
		log = logger.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := newRedisStore(client, cfg, log)

	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	s.logger.Info("redis store connected", "addr", cfg.Addr, "db", cfg.DB)
	return s, nil
}

func newRedisStore(client *redis.Client, cfg RedisConfig, log logger.Logger) *RedisStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisStore{
		client:  client,
		prefix:  cfg.KeyPrefix,
		timeout: timeout,
		logger:  log.With("component", "redis"),
	}
}

func (s *RedisStore) key(id domain.AccountID) string {
	return s.prefix + "acct:" + strconv.FormatInt(int64(id), 10)
}

// Fetch returns the stored account.
func (s *RedisStore) Fetch(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("redis: get %s: %w", id, err)
	}
	bal, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("redis: decode balance of %s: %w", id, err)
	}
	return domain.Account{ID: id, Balance: bal}, true, nil
}

// Persist overwrites the balance of an existing account (SET XX).
func (s *RedisStore) Persist(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.client.SetXX(ctx, s.key(id), balance.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("redis: set %s: %w", id, err)
	}
	if !ok {
		return ErrKeyNotFound
	}
	return nil
}

// Insert adds a new account (SET NX).
func (s *RedisStore) Insert(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.key(id), balance.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("redis: setnx %s: %w", id, err)
	}
	if !ok {
		return ErrKeyExists
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
