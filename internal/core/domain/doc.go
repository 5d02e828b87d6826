// Package domain defines the core domain models for LedgerMesh.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Account: account identity and balance
//   - TransferReceipt: confirmation of a completed transfer
//   - Amount validation rules
//   - Errors: domain-specific error definitions
//
// Balances and amounts are decimal values (shopspring/decimal); binary
// floating point is never used for money.
package domain
