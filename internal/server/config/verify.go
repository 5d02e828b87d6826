package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyLock(&cfg.Lock); err != nil {
		return err
	}
	if err := verifyLedger(&cfg.Ledger); err != nil {
		return err
	}
	if err := verifyTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}

	if cfg.HTTP.RequestTimeout < 0 {
		return errors.New("server.http.request_timeout must not be negative")
	}
	if rl := cfg.HTTP.RateLimit; rl.Enabled && (rl.RPS <= 0 || rl.Burst < 1) {
		return errors.New("server.http.rate_limit needs rps > 0 and burst >= 1 when enabled")
	}
	for _, entry := range cfg.HTTP.AdminAllowList {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("server.http.admin_allow_list: %w", err)
			}
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("server.http.admin_allow_list: invalid IP %q", entry)
		}
	}
	return verifyRESP(&cfg.RESP, cfg.HTTP.TLSCertFile != "")
}

func verifyRESP(cfg *RESPConfig, haveCert bool) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.resp.addr %q: %w", cfg.Addr, err)
	}
	if cfg.TLS && !haveCert {
		return errors.New("server.resp.tls needs server.http.tls_cert_file and tls_key_file")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.resp.rate_limit must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case "memory":
	case "badger":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger engine")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis engine")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required for the postgres engine")
		}
	default:
		return fmt.Errorf("storage.engine %q is not one of memory, badger, redis, postgres", cfg.Engine)
	}

	if b := cfg.Breaker; b.Enabled && (b.FailureRatio < 0 || b.FailureRatio > 1) {
		return errors.New("storage.breaker.failure_ratio must be between 0 and 1")
	}
	return nil
}

func verifyLock(cfg *LockSection) error {
	if cfg.MaxEntries < 1 {
		return errors.New("lock.max_entries must be at least 1")
	}
	if cfg.Shards < 1 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("lock.shards must be a power of two, got %d", cfg.Shards)
	}
	if cfg.RetryCeiling < 0 {
		return errors.New("lock.retry_ceiling must not be negative")
	}
	if cfg.RetryBackoffBase < 0 || cfg.RetryBackoffMax < cfg.RetryBackoffBase {
		return errors.New("lock.retry_backoff_max must be >= retry_backoff_base >= 0")
	}
	return nil
}

func verifyLedger(cfg *LedgerSection) error {
	d, err := decimal.NewFromString(cfg.MinAmount)
	if err != nil {
		return fmt.Errorf("ledger.min_amount %q: %w", cfg.MinAmount, err)
	}
	if d.IsNegative() {
		return errors.New("ledger.min_amount must not be negative")
	}
	return nil
}

func verifyTelemetry(cfg *TelemetrySection) error {
	if r := cfg.Tracing.SampleRatio; r < 0 || r > 1 {
		return errors.New("telemetry.tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	switch cfg.Backend {
	case "", "slog", "zap":
	default:
		return fmt.Errorf("log.backend %q is not one of slog, zap", cfg.Backend)
	}
	return nil
}
