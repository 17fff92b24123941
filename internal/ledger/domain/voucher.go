package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a voucher entry.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Valid reports whether d is debit or credit.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// VoucherStatus is the review state of a voucher. It is display-only and
// independent of whether the voucher is posted.
type VoucherStatus string

const (
	VoucherStatusUnreviewed VoucherStatus = "unreviewed"
	VoucherStatusReviewed   VoucherStatus = "reviewed"
	VoucherStatusRejected   VoucherStatus = "rejected"
)

// Voucher is one balanced accounting transaction. Entries are created,
// replaced and deleted together with the voucher.
type Voucher struct {
	ID          int64
	Number      string // "YYYYMMDD-NNNN", monotonic per owner
	Date        time.Time
	Description string
	Status      VoucherStatus
	Posted      bool
	PostedAt    time.Time
	OwnerID     int64
	Entries     []VoucherEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VoucherEntry is a single debit or credit line tied to one account.
// Amount is a non-negative magnitude; Direction carries the sign semantics.
type VoucherEntry struct {
	ID          int64
	VoucherID   int64
	AccountID   int64
	Direction   Direction
	Amount      decimal.Decimal
	Description string
}

// FormatVoucherNumber renders a voucher number from date and sequence.
func FormatVoucherNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%04d", date.Format("20060102"), seq)
}

// EntryTotals sums entry amounts per direction.
func EntryTotals(entries []VoucherEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Direction {
		case Debit:
			debit = debit.Add(e.Amount)
		case Credit:
			credit = credit.Add(e.Amount)
		}
	}
	return debit, credit
}

// ValidateEntries enforces the entry invariants before persistence: at least
// one entry, valid directions and account references, non-negative amounts,
// and sum(debit) == sum(credit).
func ValidateEntries(entries []VoucherEntry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}
	for _, e := range entries {
		if !e.Direction.Valid() {
			return fmt.Errorf("%w: direction %q", ErrInvalidEntry, e.Direction)
		}
		if e.AccountID == 0 {
			return fmt.Errorf("%w: missing account", ErrInvalidEntry)
		}
		if e.Amount.IsNegative() {
			return fmt.Errorf("%w: negative amount %s", ErrInvalidEntry, e.Amount)
		}
	}
	debit, credit := EntryTotals(entries)
	if !debit.Equal(credit) {
		return &UnbalancedError{DebitTotal: debit, CreditTotal: credit}
	}
	return nil
}
