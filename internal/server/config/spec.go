package config

import "time"

// ServerConfig is the root configuration for ledgermesh-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Lock      LockSection      `koanf:"lock"`
	Ledger    LedgerSection    `koanf:"ledger"`
	Telemetry TelemetrySection `koanf:"telemetry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
	RESP RESPConfig `koanf:"resp"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RequestTimeout bounds each request, lock waits included.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	// AdminAllowList restricts /admin/v1 to these IPs or CIDRs. Empty allows all.
	AdminAllowList []string `koanf:"admin_allow_list"`

	// EnableAudit logs one line per request.
	EnableAudit bool `koanf:"enable_audit"`
}

// RESPConfig configures the Redis-protocol listener.
type RESPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// TLS serves RESP with the HTTP certificate pair.
	TLS bool `koanf:"tls"`

	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	CommandTimeout time.Duration `koanf:"command_timeout"`

	// RateLimit is commands per second per connection; 0 disables it.
	RateLimit float64 `koanf:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// StorageSection configures the balance store.
type StorageSection struct {
	// Engine is one of memory, badger, redis, postgres.
	Engine string `koanf:"engine"`

	// DataDir is the Badger directory.
	DataDir      string `koanf:"data_dir"`
	SyncWrites   bool   `koanf:"sync_writes"`
	GCInterval   string `koanf:"gc_interval"`
	SeedAccounts bool   `koanf:"seed_sample_accounts"`

	Redis    RedisStoreConfig    `koanf:"redis"`
	Postgres PostgresStoreConfig `koanf:"postgres"`
	Breaker  BreakerConfig       `koanf:"breaker"`
}

// RedisStoreConfig configures the Redis balance store.
type RedisStoreConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	Timeout   time.Duration `koanf:"timeout"`
}

// PostgresStoreConfig configures the Postgres balance store.
type PostgresStoreConfig struct {
	DSN            string        `koanf:"dsn"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ApplySchema    bool          `koanf:"apply_schema"`
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
	FailureRatio        float64       `koanf:"failure_ratio"`
	MinRequests         uint32        `koanf:"min_requests"`
	OpenTimeout         time.Duration `koanf:"open_timeout"`
}

// LockSection configures the per-account lock registry.
type LockSection struct {
	// MaxEntries is the registry size above which a sweep runs.
	MaxEntries int `koanf:"max_entries"`

	// Shards is the number of map shards (power of two).
	Shards int `koanf:"shards"`

	// RetryCeiling is how many times a transfer retries taking both locks.
	RetryCeiling int `koanf:"retry_ceiling"`

	RetryBackoffBase time.Duration `koanf:"retry_backoff_base"`
	RetryBackoffMax  time.Duration `koanf:"retry_backoff_max"`
}

// LedgerSection configures ledger rules.
type LedgerSection struct {
	// MinAmount is the exclusive lower bound for amounts, as a decimal string.
	MinAmount string `koanf:"min_amount"`
}

// TelemetrySection configures metrics and tracing.
type TelemetrySection struct {
	MetricsEnabled bool          `koanf:"metrics_enabled"`
	Tracing        TracingConfig `koanf:"tracing"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// Backend is slog or zap.
	Backend string `koanf:"backend"`
}
