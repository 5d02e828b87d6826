// Package service provides the ledger service of LedgerMesh.
//
// LedgerService validates requests, takes per-account locks from a
// lockreg.Registry and reads and writes balances through a BalanceStore.
// Every mutation of an account happens while its exclusive lock is held;
// transfers hold both accounts' locks for the whole read-check-write.
//
// The service defines the BalanceStore interface it depends on, so storage
// backends can be swapped and faked in tests.
package service
