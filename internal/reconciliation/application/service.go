package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/observability/metrics"
	reconciliation "finbooks/internal/reconciliation/domain"
)

// BankAccountLister resolves the owner's bank accounts for candidate queries.
type BankAccountLister interface {
	ListBankAccounts(ctx context.Context, ownerID int64) ([]ledger.Account, error)
}

// EntryGetter resolves one voucher entry when linking.
type EntryGetter interface {
	GetEntry(ctx context.Context, ownerID, entryID int64) (*ledger.VoucherEntry, error)
}

// StatementInput carries the caller-editable statement header fields.
type StatementInput struct {
	AccountID      int64
	StatementDate  time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
}

// Service handles bank reconciliation use cases. The statement status is
// never accepted from callers; it is derived from item flags on every
// change.
type Service struct {
	statements reconciliation.Repository
	entries    EntryGetter
	banks      BankAccountLister
	logger     *log.Logger
}

// NewService constructs the service.
func NewService(statements reconciliation.Repository, entries EntryGetter, banks BankAccountLister, logger *log.Logger) (*Service, error) {
	if statements == nil {
		return nil, errors.New("reconciliation service: nil statement repository")
	}
	if entries == nil {
		return nil, errors.New("reconciliation service: nil entry getter")
	}
	if banks == nil {
		return nil, errors.New("reconciliation service: nil bank lister")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{statements: statements, entries: entries, banks: banks, logger: logger}, nil
}

// CreateStatement stores a statement with its imported items. All items
// start unreconciled; the status is derived, not taken from the caller.
func (s *Service) CreateStatement(ctx context.Context, ownerID int64, stmt *reconciliation.BankStatement) (*reconciliation.BankStatement, error) {
	stmt.OwnerID = ownerID
	for i := range stmt.Items {
		stmt.Items[i].Reconciled = false
		stmt.Items[i].VoucherEntryID = 0
	}
	stmt.Status = reconciliation.DeriveStatus(stmt.Items)
	if err := s.statements.CreateStatement(ctx, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// GetStatement loads one statement with items.
func (s *Service) GetStatement(ctx context.Context, ownerID, id int64) (*reconciliation.BankStatement, error) {
	return s.statements.GetStatement(ctx, ownerID, id)
}

// ListStatements returns the owner's statements, newest first.
func (s *Service) ListStatements(ctx context.Context, ownerID int64) ([]reconciliation.BankStatement, error) {
	return s.statements.ListStatements(ctx, ownerID)
}

// UpdateStatement overwrites the header fields, keeping the derived status.
func (s *Service) UpdateStatement(ctx context.Context, ownerID, id int64, in StatementInput) (*reconciliation.BankStatement, error) {
	stmt, err := s.statements.GetStatement(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.AccountID != 0 {
		stmt.AccountID = in.AccountID
	}
	if !in.StatementDate.IsZero() {
		stmt.StatementDate = in.StatementDate
	}
	stmt.OpeningBalance = in.OpeningBalance
	stmt.ClosingBalance = in.ClosingBalance
	if err := s.statements.UpdateStatement(ctx, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// DeleteStatement removes a statement and its items. Links held by the
// items simply disappear; voucher entries are untouched.
func (s *Service) DeleteStatement(ctx context.Context, ownerID, id int64) error {
	return s.statements.DeleteStatement(ctx, ownerID, id)
}

// AddItems appends imported items to a statement.
func (s *Service) AddItems(ctx context.Context, ownerID, statementID int64, items []reconciliation.StatementItem) error {
	if len(items) == 0 {
		return reconciliation.ErrNoItems
	}
	for i := range items {
		items[i].Reconciled = false
		items[i].VoucherEntryID = 0
	}
	return s.statements.AddItems(ctx, ownerID, statementID, items)
}

// Reconcile links one statement item to a voucher entry, or clears the link
// when voucherEntryID is zero. The derived statement status is recomputed
// and stored with the item in one repository call.
func (s *Service) Reconcile(ctx context.Context, ownerID, itemID, voucherEntryID int64) (*reconciliation.BankStatement, error) {
	item, err := s.statements.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	if voucherEntryID != 0 {
		if _, err := s.entries.GetEntry(ctx, ownerID, voucherEntryID); err != nil {
			return nil, err
		}
		item.Reconciled = true
		item.VoucherEntryID = voucherEntryID
		metrics.IncReconcileLink("link")
	} else {
		item.Reconciled = false
		item.VoucherEntryID = 0
		metrics.IncReconcileLink("unlink")
	}

	stmt, err := s.statements.GetStatement(ctx, ownerID, item.StatementID)
	if err != nil {
		return nil, err
	}
	for i := range stmt.Items {
		if stmt.Items[i].ID == item.ID {
			stmt.Items[i].Reconciled = item.Reconciled
			stmt.Items[i].VoucherEntryID = item.VoucherEntryID
		}
	}
	status := reconciliation.DeriveStatus(stmt.Items)
	if err := s.statements.SetItemLink(ctx, ownerID, item, status); err != nil {
		return nil, err
	}
	stmt.Status = status
	return stmt, nil
}

// UnreconciledEntries lists voucher entries on the owner's bank accounts
// that no reconciled item claims yet.
func (s *Service) UnreconciledEntries(ctx context.Context, ownerID int64) ([]reconciliation.CandidateEntry, error) {
	banks, err := s.banks.ListBankAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(banks))
	for _, b := range banks {
		ids = append(ids, b.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.statements.ListCandidateEntries(ctx, ownerID, ids)
}
