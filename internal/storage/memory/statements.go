package memory

import (
	"context"
	"sort"
	"time"

	reconciliation "finbooks/internal/reconciliation/domain"
)

// CreateStatement stores a statement with its imported items.
func (s *Store) CreateStatement(ctx context.Context, stmt *reconciliation.BankStatement) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStatementID++
	stmt.ID = s.nextStatementID
	now := time.Now().UTC()
	stmt.CreatedAt = now
	stmt.UpdatedAt = now
	for i := range stmt.Items {
		s.nextItemID++
		stmt.Items[i].ID = s.nextItemID
		stmt.Items[i].StatementID = stmt.ID
		stmt.Items[i].CreatedAt = now
		stmt.Items[i].UpdatedAt = now
	}
	s.statements[stmt.ID] = cloneStatement(stmt)
	return nil
}

// GetStatement loads an owner's statement with items.
func (s *Store) GetStatement(ctx context.Context, ownerID, id int64) (*reconciliation.BankStatement, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getStatementLocked(ownerID, id)
}

func (s *Store) getStatementLocked(ownerID, id int64) (*reconciliation.BankStatement, error) {
	stmt := s.statements[id]
	if stmt == nil || stmt.OwnerID != ownerID {
		return nil, reconciliation.ErrStatementNotFound
	}
	return cloneStatement(stmt), nil
}

// ListStatements returns the owner's statements, newest first.
func (s *Store) ListStatements(ctx context.Context, ownerID int64) ([]reconciliation.BankStatement, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []reconciliation.BankStatement
	for _, stmt := range s.statements {
		if stmt.OwnerID == ownerID {
			out = append(out, *cloneStatement(stmt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StatementDate.Equal(out[j].StatementDate) {
			return out[i].StatementDate.After(out[j].StatementDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateStatement overwrites header fields; items are managed separately.
func (s *Store) UpdateStatement(ctx context.Context, stmt *reconciliation.BankStatement) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.statements[stmt.ID]
	if existing == nil || existing.OwnerID != stmt.OwnerID {
		return reconciliation.ErrStatementNotFound
	}
	existing.AccountID = stmt.AccountID
	existing.StatementDate = stmt.StatementDate
	existing.OpeningBalance = stmt.OpeningBalance
	existing.ClosingBalance = stmt.ClosingBalance
	existing.Status = stmt.Status
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteStatement removes a statement and its items.
func (s *Store) DeleteStatement(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := s.statements[id]
	if stmt == nil || stmt.OwnerID != ownerID {
		return reconciliation.ErrStatementNotFound
	}
	delete(s.statements, id)
	return nil
}

// AddItems appends imported items to an existing statement and re-derives
// its status.
func (s *Store) AddItems(ctx context.Context, ownerID, statementID int64, items []reconciliation.StatementItem) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := s.statements[statementID]
	if stmt == nil || stmt.OwnerID != ownerID {
		return reconciliation.ErrStatementNotFound
	}
	now := time.Now().UTC()
	for i := range items {
		s.nextItemID++
		items[i].ID = s.nextItemID
		items[i].StatementID = statementID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		stmt.Items = append(stmt.Items, items[i])
	}
	stmt.Status = reconciliation.DeriveStatus(stmt.Items)
	stmt.UpdatedAt = now
	return nil
}

// GetItem loads one statement item scoped by owner.
func (s *Store) GetItem(ctx context.Context, ownerID, itemID int64) (*reconciliation.StatementItem, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stmt := range s.statements {
		if stmt.OwnerID != ownerID {
			continue
		}
		for _, item := range stmt.Items {
			if item.ID == itemID {
				out := item
				return &out, nil
			}
		}
	}
	return nil, reconciliation.ErrItemNotFound
}

// SetItemLink updates one item's reconciliation link and the statement
// status in the same critical section.
func (s *Store) SetItemLink(ctx context.Context, ownerID int64, item *reconciliation.StatementItem, status reconciliation.StatementStatus) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := s.statements[item.StatementID]
	if stmt == nil || stmt.OwnerID != ownerID {
		return reconciliation.ErrStatementNotFound
	}
	now := time.Now().UTC()
	for i := range stmt.Items {
		if stmt.Items[i].ID == item.ID {
			stmt.Items[i].Reconciled = item.Reconciled
			stmt.Items[i].VoucherEntryID = item.VoucherEntryID
			stmt.Items[i].UpdatedAt = now
			stmt.Status = status
			stmt.UpdatedAt = now
			return nil
		}
	}
	return reconciliation.ErrItemNotFound
}

// ListCandidateEntries returns the owner's voucher entries on the given
// bank accounts that are not yet claimed by a reconciled statement item.
func (s *Store) ListCandidateEntries(ctx context.Context, ownerID int64, bankAccountIDs []int64) ([]reconciliation.CandidateEntry, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	bank := make(map[int64]bool, len(bankAccountIDs))
	for _, id := range bankAccountIDs {
		bank[id] = true
	}
	claimed := make(map[int64]bool)
	for _, stmt := range s.statements {
		if stmt.OwnerID != ownerID {
			continue
		}
		for _, item := range stmt.Items {
			if item.Reconciled && item.VoucherEntryID != 0 {
				claimed[item.VoucherEntryID] = true
			}
		}
	}

	var out []reconciliation.CandidateEntry
	for _, v := range s.vouchers {
		if v.OwnerID != ownerID {
			continue
		}
		for _, e := range v.Entries {
			if !bank[e.AccountID] || claimed[e.ID] {
				continue
			}
			name := ""
			if a := s.accounts[e.AccountID]; a != nil {
				name = a.Name
			}
			out = append(out, reconciliation.CandidateEntry{
				EntryID:       e.ID,
				VoucherNumber: v.Number,
				VoucherDate:   v.Date,
				AccountID:     e.AccountID,
				AccountName:   name,
				Description:   e.Description,
				Amount:        e.Amount,
				Direction:     string(e.Direction),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoucherNumber != out[j].VoucherNumber {
			return out[i].VoucherNumber < out[j].VoucherNumber
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out, nil
}
