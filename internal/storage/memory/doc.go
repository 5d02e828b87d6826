// Package memory provides an in-process balance store for LedgerMesh.
//
// Balances live in a sharded concurrent map keyed by account id. Each
// operation is atomic on its own; the store adds no locking across calls,
// which is the ledger service's job.
//
// Nothing survives a restart. Use it for tests, demos and the default
// single-node profile.
package memory
