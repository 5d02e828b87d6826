package config

import (
	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/storage"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/tracer"
)

// StorageConfig maps the storage section onto storage.Config.
func (c *ServerConfig) StorageConfig() storage.Config {
	s := c.Storage
	badger := storage.DefaultBadgerConfig(s.DataDir)
	badger.SyncWrites = s.SyncWrites
	if s.GCInterval != "" {
		badger.GCInterval = s.GCInterval
	}

	out := storage.DefaultConfig()
	out.Engine = s.Engine
	out.Badger = badger
	out.Redis = storage.RedisConfig{
		Addr:      s.Redis.Addr,
		Password:  s.Redis.Password,
		DB:        s.Redis.DB,
		KeyPrefix: s.Redis.KeyPrefix,
		Timeout:   s.Redis.Timeout,
	}
	out.Postgres.DSN = s.Postgres.DSN
	out.Postgres.MaxConns = s.Postgres.MaxConns
	out.Postgres.ConnectTimeout = s.Postgres.ConnectTimeout
	out.Postgres.ApplySchema = s.Postgres.ApplySchema
	out.Breaker.Enabled = s.Breaker.Enabled
	out.Breaker.ConsecutiveFailures = s.Breaker.ConsecutiveFailures
	out.Breaker.FailureRatio = s.Breaker.FailureRatio
	out.Breaker.MinRequests = s.Breaker.MinRequests
	out.Breaker.OpenTimeout = s.Breaker.OpenTimeout
	out.SeedSampleAccounts = s.SeedAccounts
	return out
}

// MinAmount returns the parsed ledger minimum. Call after Verify.
func (c *ServerConfig) MinAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.Ledger.MinAmount)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

// LoggerConfig maps the log section onto logger.Config.
func (c *ServerConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Backend: c.Log.Backend,
	}
}

// LockOptions maps the lock section onto registry options.
func (c *ServerConfig) LockOptions() []lockreg.Option {
	l := c.Lock
	opts := []lockreg.Option{
		lockreg.WithMaxEntries(l.MaxEntries),
		lockreg.WithRetryCeiling(l.RetryCeiling),
		lockreg.WithRetryBackoff(l.RetryBackoffBase, l.RetryBackoffMax),
	}
	if l.Shards > 0 {
		opts = append(opts, lockreg.WithShards(l.Shards))
	}
	return opts
}

// TracerConfig maps the tracing section onto tracer.Config.
func (c *ServerConfig) TracerConfig() tracer.Config {
	t := c.Telemetry.Tracing
	return tracer.Config{
		ServiceName: t.ServiceName,
		Endpoint:    t.Endpoint,
		Insecure:    t.Insecure,
		SampleRatio: t.SampleRatio,
	}
}
