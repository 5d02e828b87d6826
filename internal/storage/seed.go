package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/core/service"
)

// SampleAccounts are the demo accounts inserted when seeding is enabled.
func SampleAccounts() []domain.Account {
	return []domain.Account{
		{ID: 1, Balance: decimal.NewFromInt(10000)},
		{ID: 2, Balance: decimal.NewFromInt(15000)},
		{ID: 3, Balance: decimal.NewFromInt(25000)},
	}
}

// Seed inserts accounts that are not stored yet and returns how many were
// added. Existing balances are left untouched.
func Seed(ctx context.Context, store service.BalanceStore, accounts []domain.Account) (int, error) {
	added := 0
	for _, a := range accounts {
		err := store.Insert(ctx, a.ID, a.Balance)
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrKeyExists):
		default:
			return added, fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}
	return added, nil
}
