package ledger

import (
	"context"
	"time"
)

// AccountRepository persists the chart of accounts. All reads are scoped by
// owner; a miss for any reason (absent or foreign-owned) is ErrAccountNotFound.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, ownerID, id int64) (*Account, error)
	List(ctx context.Context, ownerID int64) ([]Account, error)
	ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, ownerID, id int64) error
	CountByType(ctx context.Context, ownerID int64, t AccountType) (int, error)
	FirstByCodePrefix(ctx context.Context, ownerID int64, prefix string) (*Account, error)
	// ApplyDeltas mutates balances in one transaction. Used only by the
	// posting paths; ad-hoc balance edits go through Update.
	ApplyDeltas(ctx context.Context, deltas []AccountDelta) error
}

// VoucherRepository persists vouchers and their entries. Create assigns the
// voucher number from a per-owner monotonic counter inside the same
// transaction as the insert, so concurrent creations cannot collide.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *Voucher) error
	Get(ctx context.Context, ownerID, id int64) (*Voucher, error)
	GetEntry(ctx context.Context, ownerID, entryID int64) (*VoucherEntry, error)
	List(ctx context.Context, ownerID int64) ([]Voucher, error)
	// Replace overwrites header fields and substitutes the full entry set.
	// Callers guarantee the voucher is not posted.
	Replace(ctx context.Context, voucher *Voucher) error
	Delete(ctx context.Context, ownerID, id int64) error
	// DeleteWithReversal removes a posted voucher and applies the reversal
	// deltas in the same transaction.
	DeleteWithReversal(ctx context.Context, voucher *Voucher, deltas []AccountDelta) error
	// SetPosted flips the posted flag, stamps postedAt and status, and
	// applies the balance deltas, all in one transaction.
	SetPosted(ctx context.Context, voucher *Voucher, posted bool, postedAt time.Time, status VoucherStatus, deltas []AccountDelta) error
}
