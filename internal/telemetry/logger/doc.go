// Package logger provides structured logging for LedgerMesh.
//
// Two backends implement the same Logger interface:
//
//   - logger.go: log/slog (default)
//   - zap.go: go.uber.org/zap, selected with log.backend: zap
//   - context.go: context-aware logging with request/trace IDs
//   - redact.go: sensitive data redaction shared by both backends
//
// The level is process-wide and can be changed at runtime with SetLevel.
package logger
