// Package storage provides balance store backends for LedgerMesh.
//
// Every backend implements service.BalanceStore:
//
//   - memory: sharded in-process map (package memory)
//   - badger: embedded durable KV store (BadgerStore)
//   - redis: remote store via go-redis (RedisStore)
//   - postgres: SQL store via pgx (PostgresStore)
//
// Open selects a backend from Config, optionally wraps it in a circuit
// breaker (BreakerStore) and seeds the sample accounts.
//
// Balances are stored as decimal strings so no precision is lost.
package storage
