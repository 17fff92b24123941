package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementStatus is derived from item reconciled flags, never set directly
// by clients.
type StatementStatus string

const (
	StatusPending             StatementStatus = "pending"
	StatusPartiallyReconciled StatementStatus = "partially_reconciled"
	StatusCompleted           StatementStatus = "completed"
)

// BankStatement groups the imported line items for one bank account period.
type BankStatement struct {
	ID             int64
	AccountID      int64
	StatementDate  time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Status         StatementStatus
	OwnerID        int64
	Items          []StatementItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StatementItem is one imported bank transaction line. VoucherEntryID is a
// weak link to the voucher entry recording the same cash movement; the
// entry's lifecycle is independent.
type StatementItem struct {
	ID              int64
	StatementID     int64
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	Balance         decimal.Decimal
	Reconciled      bool
	VoucherEntryID  int64 // 0 = unlinked
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeriveStatus folds item reconciled flags into the statement status. It is
// recomputed from scratch on every reconciliation change; there are no
// incremental counters to drift.
func DeriveStatus(items []StatementItem) StatementStatus {
	if len(items) == 0 {
		return StatusPending
	}
	reconciled := 0
	for _, item := range items {
		if item.Reconciled {
			reconciled++
		}
	}
	switch reconciled {
	case 0:
		return StatusPending
	case len(items):
		return StatusCompleted
	default:
		return StatusPartiallyReconciled
	}
}
