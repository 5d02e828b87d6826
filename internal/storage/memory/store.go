package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/pkg/cmap"
)

// Store errors.
var (
	ErrNotFound = errors.New("account not stored")
	ErrExists   = errors.New("account already stored")
)

// Store is an in-memory balance store.
type Store struct {
	balances *cmap.Map[domain.AccountID, decimal.Decimal]
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(o *storeOptions) { o.shards = n }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{balances: cmap.NewWithShards[domain.AccountID, decimal.Decimal](o.shards)}
}

// Fetch returns the stored account.
func (s *Store) Fetch(_ context.Context, id domain.AccountID) (domain.Account, bool, error) {
	bal, ok := s.balances.Get(id)
	if !ok {
		return domain.Account{}, false, nil
	}
	return domain.Account{ID: id, Balance: bal}, true, nil
}

// Persist overwrites the balance of an existing account.
func (s *Store) Persist(_ context.Context, id domain.AccountID, balance decimal.Decimal) error {
	found := false
	s.balances.Compute(id, func(cur decimal.Decimal, ok bool) (decimal.Decimal, bool) {
		if !ok {
			return cur, false
		}
		found = true
		return balance, true
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

// Insert adds a new account.
func (s *Store) Insert(_ context.Context, id domain.AccountID, balance decimal.Decimal) error {
	if !s.balances.SetIfAbsent(id, balance) {
		return ErrExists
	}
	return nil
}

// Count returns the number of stored accounts.
func (s *Store) Count() int {
	return s.balances.Count()
}

// Snapshot returns every account ordered by id.
func (s *Store) Snapshot() []domain.Account {
	out := make([]domain.Account, 0, s.balances.Count())
	s.balances.Range(func(id domain.AccountID, bal decimal.Decimal) bool {
		out = append(out, domain.Account{ID: id, Balance: bal})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
