package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CandidateEntry is a voucher entry eligible to be linked to a statement
// item: a bank-account entry not already linked to a reconciled item.
type CandidateEntry struct {
	EntryID       int64
	VoucherNumber string
	VoucherDate   time.Time
	AccountID     int64
	AccountName   string
	Description   string
	Amount        decimal.Decimal
	Direction     string
}

// Repository persists bank statements and their items. Statement reads load
// items; SetItemLink updates the item and the derived statement status in
// one transaction.
type Repository interface {
	CreateStatement(ctx context.Context, stmt *BankStatement) error
	GetStatement(ctx context.Context, ownerID, id int64) (*BankStatement, error)
	ListStatements(ctx context.Context, ownerID int64) ([]BankStatement, error)
	UpdateStatement(ctx context.Context, stmt *BankStatement) error
	DeleteStatement(ctx context.Context, ownerID, id int64) error
	AddItems(ctx context.Context, ownerID, statementID int64, items []StatementItem) error
	GetItem(ctx context.Context, ownerID, itemID int64) (*StatementItem, error)
	SetItemLink(ctx context.Context, ownerID int64, item *StatementItem, status StatementStatus) error
	ListCandidateEntries(ctx context.Context, ownerID int64, bankAccountIDs []int64) ([]CandidateEntry, error)
}
