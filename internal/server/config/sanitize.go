package config

import (
	"strings"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Storage.Redis.Password != "" {
		sanitized.Storage.Redis.Password = maskSecret(sanitized.Storage.Redis.Password)
	}
	if sanitized.Storage.Postgres.DSN != "" {
		sanitized.Storage.Postgres.DSN = logger.RedactString(sanitized.Storage.Postgres.DSN)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
