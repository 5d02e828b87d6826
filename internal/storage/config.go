package storage

import "time"

// Engine names accepted by Config.Engine.
const (
	EngineMemory   = "memory"
	EngineBadger   = "badger"
	EngineRedis    = "redis"
	EnginePostgres = "postgres"
)

// Config selects and configures the balance store backend.
type Config struct {
	// Engine is one of memory, badger, redis, postgres. Default: memory.
	Engine string

	// Badger settings, used when Engine is badger.
	Badger BadgerConfig

	// Redis settings, used when Engine is redis.
	Redis RedisConfig

	// Postgres settings, used when Engine is postgres.
	Postgres PostgresConfig

	// Breaker wraps the backend in a circuit breaker when enabled.
	Breaker BreakerConfig

	// SeedSampleAccounts inserts accounts 1, 2 and 3 on open if absent.
	SeedSampleAccounts bool
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write. Balances are money, so the
	// default is true.
	SyncWrites bool
}

// RedisConfig configures the Redis balance store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// PostgresConfig configures the Postgres balance store.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	ConnectTimeout  time.Duration
	ApplySchema     bool
	HealthCheckTick time.Duration
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
	OpenTimeout         time.Duration
	Interval            time.Duration
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Engine: EngineMemory,
		Badger: DefaultBadgerConfig("data/badger"),
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "ledgermesh:",
			Timeout:   2 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxConns:        10,
			ConnectTimeout:  5 * time.Second,
			ApplySchema:     true,
			HealthCheckTick: time.Minute,
		},
		Breaker: BreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
			OpenTimeout:         30 * time.Second,
			Interval:            time.Minute,
		},
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        64 << 20,
		ValueLogFileSize: 256 << 20,
		SyncWrites:       true,
	}
}
