package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimitRPS    = 200
	DefaultRateLimitBurst  = 400
	DefaultRESPAddr        = "127.0.0.1:6390"

	DefaultStorageEngine = "memory"
	DefaultDataDir       = "/var/lib/ledgermesh-server/data"
	DefaultGCInterval    = "10m"
	DefaultRedisAddr     = "127.0.0.1:6379"
	DefaultRedisPrefix   = "ledgermesh:"

	DefaultLockMaxEntries   = 100
	DefaultLockShards       = 32
	DefaultLockRetryCeiling = 100
	DefaultRetryBackoffBase = 50 * time.Microsecond
	DefaultRetryBackoffMax  = 2 * time.Millisecond

	DefaultMinAmount = "1"

	DefaultServiceName = "ledgermesh-server"

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultLogBackend = "slog"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RequestTimeout:  DefaultRequestTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
				RateLimit: RateLimitConfig{
					Enabled: true,
					RPS:     DefaultRateLimitRPS,
					Burst:   DefaultRateLimitBurst,
				},
				EnableAudit: true,
			},
			RESP: RESPConfig{
				Addr:           DefaultRESPAddr,
				ReadTimeout:    30 * time.Second,
				WriteTimeout:   30 * time.Second,
				IdleTimeout:    5 * time.Minute,
				CommandTimeout: DefaultRequestTimeout,
				RateLimit:      1000,
			},
		},
		Storage: StorageSection{
			Engine:       DefaultStorageEngine,
			DataDir:      DefaultDataDir,
			SyncWrites:   true,
			GCInterval:   DefaultGCInterval,
			SeedAccounts: true,
			Redis: RedisStoreConfig{
				Addr:      DefaultRedisAddr,
				KeyPrefix: DefaultRedisPrefix,
				Timeout:   2 * time.Second,
			},
			Postgres: PostgresStoreConfig{
				MaxConns:       10,
				ConnectTimeout: 5 * time.Second,
				ApplySchema:    true,
			},
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
				OpenTimeout:         30 * time.Second,
			},
		},
		Lock: LockSection{
			MaxEntries:       DefaultLockMaxEntries,
			Shards:           DefaultLockShards,
			RetryCeiling:     DefaultLockRetryCeiling,
			RetryBackoffBase: DefaultRetryBackoffBase,
			RetryBackoffMax:  DefaultRetryBackoffMax,
		},
		Ledger: LedgerSection{
			MinAmount: DefaultMinAmount,
		},
		Telemetry: TelemetrySection{
			MetricsEnabled: true,
			Tracing: TracingConfig{
				ServiceName: DefaultServiceName,
				Insecure:    true,
				SampleRatio: 1,
			},
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
	}
}
