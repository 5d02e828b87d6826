// Package config provides server configuration for LedgerMesh.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, engine settings, lock tuning)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - convert.go: Mapping onto storage and logger configuration
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files and LEDGERMESH_ environment variables.
package config
