package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	ledger "finbooks/internal/ledger/domain"
)

// Create stores a new account and assigns its id.
func (r accountRepo) Create(ctx context.Context, account *ledger.Account) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextAccountID++
	account.ID = r.nextAccountID
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

// Get loads an owner's account.
func (r accountRepo) Get(ctx context.Context, ownerID, id int64) (*ledger.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getAccountLocked(ownerID, id)
}

func (s *Store) getAccountLocked(ownerID, id int64) (*ledger.Account, error) {
	a := s.accounts[id]
	if a == nil || a.OwnerID != ownerID {
		return nil, ledger.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

// List returns the owner's accounts ordered by code.
func (r accountRepo) List(ctx context.Context, ownerID int64) ([]ledger.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Account
	for _, a := range r.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListByIDs returns the owner's accounts among ids; missing ids are skipped.
func (r accountRepo) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]ledger.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ledger.Account, 0, len(ids))
	for _, id := range ids {
		if a := r.accounts[id]; a != nil && a.OwnerID == ownerID {
			out = append(out, *cloneAccount(a))
		}
	}
	return out, nil
}

// Update overwrites an account's fields.
func (r accountRepo) Update(ctx context.Context, account *ledger.Account) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.accounts[account.ID]
	if existing == nil || existing.OwnerID != account.OwnerID {
		return ledger.ErrAccountNotFound
	}
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

// Delete removes an owner's account.
func (r accountRepo) Delete(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.accounts[id]
	if a == nil || a.OwnerID != ownerID {
		return ledger.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

// CountByType counts the owner's accounts of one type.
func (r accountRepo) CountByType(ctx context.Context, ownerID int64, t ledger.AccountType) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.accounts {
		if a.OwnerID == ownerID && a.Type == t {
			n++
		}
	}
	return n, nil
}

// FirstByCodePrefix returns the owner's lowest-coded account matching prefix,
// or nil when absent.
func (r accountRepo) FirstByCodePrefix(ctx context.Context, ownerID int64, prefix string) (*ledger.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *ledger.Account
	for _, a := range r.accounts {
		if a.OwnerID != ownerID || !strings.HasPrefix(a.Code, prefix) {
			continue
		}
		if best == nil || a.Code < best.Code || (a.Code == best.Code && a.ID < best.ID) {
			best = a
		}
	}
	return cloneAccount(best), nil
}

// ApplyDeltas mutates balances atomically; an unknown account aborts the
// whole batch untouched.
func (r accountRepo) ApplyDeltas(ctx context.Context, deltas []ledger.AccountDelta) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyDeltasLocked(deltas)
}

func (s *Store) applyDeltasLocked(deltas []ledger.AccountDelta) error {
	for _, d := range deltas {
		if s.accounts[d.AccountID] == nil {
			return ledger.ErrAccountNotFound
		}
	}
	now := time.Now().UTC()
	for _, d := range deltas {
		a := s.accounts[d.AccountID]
		a.Balance = a.Balance.Add(d.Delta)
		a.UpdatedAt = now
	}
	return nil
}
