package domain

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// AccountID identifies an account. Valid identifiers are strictly positive.
type AccountID int64

// String returns the decimal form of the id.
func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid reports whether the id may be used to create an account.
func (id AccountID) Valid() bool {
	return id > 0
}

// ParseAccountID parses a decimal account id.
func ParseAccountID(s string) (AccountID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAccountNumber.WithDetails(fmt.Sprintf("cannot parse %q", s))
	}
	return AccountID(n), nil
}

// DefaultMinAmount is the exclusive lower bound for amounts.
// An amount must be strictly greater than this value to be accepted.
var DefaultMinAmount = decimal.NewFromInt(1)

// Account is a balance-holding ledger entity.
type Account struct {
	ID      AccountID       `json:"account_id"`
	Balance decimal.Decimal `json:"balance"`
}

// CanDebit reports whether amount can be taken from the account without
// driving the balance negative.
func (a Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ValidateAmount checks that amount is strictly greater than floor.
func ValidateAmount(amount, floor decimal.Decimal) error {
	if amount.LessThanOrEqual(floor) {
		return ErrInvalidAmount.WithDetails(fmt.Sprintf("amount %s must be greater than %s", amount, floor))
	}
	return nil
}

// ParseAmount parses a decimal amount as sent over the wire.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount.WithDetails(fmt.Sprintf("cannot parse %q", s))
	}
	return d, nil
}

// TransferReceipt confirms a completed transfer.
// TransactionID is diagnostic only; it is not an idempotency key.
type TransferReceipt struct {
	TransactionID string          `json:"transaction_id"`
	From          AccountID       `json:"from_account_id"`
	To            AccountID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// String renders the confirmation message returned to callers.
func (r *TransferReceipt) String() string {
	return fmt.Sprintf("transaction %s completed", r.TransactionID)
}
