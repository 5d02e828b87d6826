package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
	"github.com/yndnr/ledgermesh-go/internal/storage"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if !cfg.Server.HTTP.RateLimit.Enabled {
		t.Error("rate limiting should be enabled by default")
	}
	if cfg.Storage.Engine != DefaultStorageEngine {
		t.Errorf("Storage.Engine = %q, want %q", cfg.Storage.Engine, DefaultStorageEngine)
	}
	if !cfg.Storage.SeedAccounts {
		t.Error("sample accounts should be seeded by default")
	}
	if cfg.Lock.MaxEntries != DefaultLockMaxEntries {
		t.Errorf("Lock.MaxEntries = %d, want %d", cfg.Lock.MaxEntries, DefaultLockMaxEntries)
	}
	if cfg.Lock.RetryCeiling != DefaultLockRetryCeiling {
		t.Errorf("Lock.RetryCeiling = %d, want %d", cfg.Lock.RetryCeiling, DefaultLockRetryCeiling)
	}
	if cfg.Ledger.MinAmount != "1" {
		t.Errorf("Ledger.MinAmount = %q, want 1", cfg.Ledger.MinAmount)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Backend != DefaultLogBackend {
		t.Errorf("Log.Backend = %q, want %q", cfg.Log.Backend, DefaultLogBackend)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("default config should verify: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Storage.Redis.Password = "super-secret-password"
	cfg.Storage.Postgres.DSN = "postgres://ledger:hunter2@db:5432/ledger"

	sanitized := Sanitize(cfg)

	if cfg.Storage.Redis.Password != "super-secret-password" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Storage.Redis.Password == cfg.Storage.Redis.Password {
		t.Error("Sanitized config should mask the redis password")
	}
	if len(sanitized.Storage.Redis.Password) != len(cfg.Storage.Redis.Password) {
		t.Errorf("Masked password length = %d, want %d",
			len(sanitized.Storage.Redis.Password), len(cfg.Storage.Redis.Password))
	}
	if strings.Contains(sanitized.Storage.Postgres.DSN, "hunter2") {
		t.Errorf("DSN password leaked: %s", sanitized.Storage.Postgres.DSN)
	}
	if !strings.Contains(sanitized.Storage.Postgres.DSN, "db:5432") {
		t.Errorf("DSN host should be kept: %s", sanitized.Storage.Postgres.DSN)
	}
}

func TestSanitize_Empty(t *testing.T) {
	sanitized := Sanitize(Default())
	if sanitized.Storage.Redis.Password != "" || sanitized.Storage.Postgres.DSN != "" {
		t.Error("Empty secrets should remain empty")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		result := maskSecret(tt.input)
		if result != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestVerify_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"bad http addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "localhost" }},
		{"tls cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }},
		{"tls files missing", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}},
		{"rate limit without rps", func(c *ServerConfig) { c.Server.HTTP.RateLimit.RPS = 0 }},
		{"bad admin cidr", func(c *ServerConfig) { c.Server.HTTP.AdminAllowList = []string{"10.0.0.0/33"} }},
		{"bad admin ip", func(c *ServerConfig) { c.Server.HTTP.AdminAllowList = []string{"not-an-ip"} }},
		{"bad resp addr", func(c *ServerConfig) {
			c.Server.RESP.Enabled = true
			c.Server.RESP.Addr = "6390"
		}},
		{"resp tls without cert", func(c *ServerConfig) {
			c.Server.RESP.Enabled = true
			c.Server.RESP.TLS = true
		}},
		{"unknown engine", func(c *ServerConfig) { c.Storage.Engine = "etcd" }},
		{"badger without dir", func(c *ServerConfig) {
			c.Storage.Engine = "badger"
			c.Storage.DataDir = ""
		}},
		{"redis without addr", func(c *ServerConfig) {
			c.Storage.Engine = "redis"
			c.Storage.Redis.Addr = ""
		}},
		{"postgres without dsn", func(c *ServerConfig) { c.Storage.Engine = "postgres" }},
		{"breaker ratio", func(c *ServerConfig) { c.Storage.Breaker.FailureRatio = 1.5 }},
		{"zero max entries", func(c *ServerConfig) { c.Lock.MaxEntries = 0 }},
		{"shards not power of two", func(c *ServerConfig) { c.Lock.Shards = 12 }},
		{"negative retry ceiling", func(c *ServerConfig) { c.Lock.RetryCeiling = -1 }},
		{"backoff max below base", func(c *ServerConfig) {
			c.Lock.RetryBackoffBase = time.Millisecond
			c.Lock.RetryBackoffMax = time.Microsecond
		}},
		{"min amount not a number", func(c *ServerConfig) { c.Ledger.MinAmount = "one" }},
		{"negative min amount", func(c *ServerConfig) { c.Ledger.MinAmount = "-1" }},
		{"sample ratio", func(c *ServerConfig) { c.Telemetry.Tracing.SampleRatio = 2 }},
		{"log level", func(c *ServerConfig) { c.Log.Level = "verbose" }},
		{"log format", func(c *ServerConfig) { c.Log.Format = "xml" }},
		{"log backend", func(c *ServerConfig) { c.Log.Backend = "logrus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Verify(cfg); err == nil {
				t.Error("Verify() should fail")
			}
		})
	}
}

func TestVerify_CreateDataDir(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "subdir", "data")

	cfg := Default()
	cfg.Storage.Engine = "badger"
	cfg.Storage.DataDir = newDir

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Error("Data directory should have been created")
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.Engine = "redis"
	cfg.Storage.Redis.Addr = "redis:6379"
	cfg.Storage.Redis.DB = 2
	cfg.Storage.DataDir = "/data/badger"
	cfg.Storage.SyncWrites = false

	sc := cfg.StorageConfig()
	if sc.Engine != storage.EngineRedis {
		t.Errorf("Engine = %q, want redis", sc.Engine)
	}
	if sc.Redis.Addr != "redis:6379" || sc.Redis.DB != 2 {
		t.Errorf("Redis = %+v", sc.Redis)
	}
	if sc.Badger.Dir != "/data/badger" || sc.Badger.SyncWrites {
		t.Errorf("Badger = %+v", sc.Badger)
	}
	if !sc.Breaker.Enabled || sc.Breaker.ConsecutiveFailures != 5 {
		t.Errorf("Breaker = %+v", sc.Breaker)
	}
	if !sc.SeedSampleAccounts {
		t.Error("SeedSampleAccounts should carry over")
	}
}

func TestMinAmount(t *testing.T) {
	cfg := Default()
	cfg.Ledger.MinAmount = "0.01"
	if got := cfg.MinAmount().String(); got != "0.01" {
		t.Errorf("MinAmount() = %s, want 0.01", got)
	}
}

func TestLockOptions(t *testing.T) {
	cfg := Default()
	cfg.Lock.MaxEntries = 7

	r := lockreg.New(cfg.LockOptions()...)
	if got := r.Stats().MaxEntries; got != 7 {
		t.Errorf("MaxEntries = %d, want 7", got)
	}
}

func TestTracerConfig(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Tracing.Endpoint = "otel-collector:4317"
	cfg.Telemetry.Tracing.SampleRatio = 0.25

	tc := cfg.TracerConfig()
	if tc.Endpoint != "otel-collector:4317" || tc.SampleRatio != 0.25 {
		t.Errorf("TracerConfig() = %+v", tc)
	}
	if tc.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want %q", tc.ServiceName, DefaultServiceName)
	}
}
