package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountID_Valid(t *testing.T) {
	tests := []struct {
		id   AccountID
		want bool
	}{
		{1, true},
		{42, true},
		{0, false},
		{-5, false},
	}
	for _, tt := range tests {
		if got := tt.id.Valid(); got != tt.want {
			t.Errorf("AccountID(%d).Valid() = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID("17")
	if err != nil {
		t.Fatalf("ParseAccountID() error = %v", err)
	}
	if id != 17 {
		t.Errorf("ParseAccountID() = %d, want 17", id)
	}
	if id.String() != "17" {
		t.Errorf("String() = %q, want %q", id.String(), "17")
	}

	if _, err := ParseAccountID("abc"); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Errorf("ParseAccountID(abc) error = %v, want ErrInvalidAccountNumber", err)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"above minimum", "1000", false},
		{"just above minimum", "1.01", false},
		{"equal to minimum", "1", true},
		{"below minimum", "0.5", true},
		{"zero", "0", true},
		{"negative", "-5", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount), DefaultMinAmount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAmount(%s) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("error = %v, want ErrInvalidAmount", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("1000.25")
	if err != nil {
		t.Fatalf("ParseAmount() error = %v", err)
	}
	if !d.Equal(decimal.RequireFromString("1000.25")) {
		t.Errorf("ParseAmount() = %s", d)
	}
	if _, err := ParseAmount("ten"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParseAmount(ten) error = %v, want ErrInvalidAmount", err)
	}
}

func TestAccount_CanDebit(t *testing.T) {
	acct := Account{ID: 1, Balance: decimal.NewFromInt(9000)}
	if !acct.CanDebit(decimal.NewFromInt(9000)) {
		t.Error("CanDebit should allow debiting the full balance")
	}
	if acct.CanDebit(decimal.NewFromInt(20000)) {
		t.Error("CanDebit should reject an overdraft")
	}
}

func TestTransferReceipt_String(t *testing.T) {
	r := &TransferReceipt{TransactionID: "01J0ABC-1-2", From: 1, To: 2, Amount: decimal.NewFromInt(1000)}
	if got, want := r.String(), "transaction 01J0ABC-1-2 completed"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
