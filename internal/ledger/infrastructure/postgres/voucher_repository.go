package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	ledger "finbooks/internal/ledger/domain"
)

// VoucherRepository persists vouchers and their entries.
type VoucherRepository struct {
	db *sql.DB
}

// NewVoucherRepository constructs a repository.
func NewVoucherRepository(db *sql.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// Create inserts the voucher and its entries, assigning the voucher number
// from the owner's counter in the same transaction.
func (r *VoucherRepository) Create(ctx context.Context, voucher *ledger.Voucher) error {
	if r == nil || r.db == nil {
		return errors.New("voucher repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := InsertVoucherTx(ctx, tx, voucher); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// InsertVoucherTx inserts a voucher with its entries inside an existing
// transaction. The voucher number is claimed from the per-owner counter row,
// so two concurrent inserts for the same owner serialize on that row.
func InsertVoucherTx(ctx context.Context, tx *sql.Tx, voucher *ledger.Voucher) error {
	var seq int64
	err := tx.QueryRowContext(ctx, `
INSERT INTO voucher_counters (owner_id, seq) VALUES ($1, 1)
ON CONFLICT (owner_id) DO UPDATE SET seq = voucher_counters.seq + 1
RETURNING seq`, voucher.OwnerID).Scan(&seq)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	voucher.Number = ledger.FormatVoucherNumber(voucher.Date, seq)
	voucher.CreatedAt = now
	voucher.UpdatedAt = now
	err = tx.QueryRowContext(ctx, `
INSERT INTO vouchers (
	number, date, description, status, posted, posted_at, owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		voucher.Number, voucher.Date, voucher.Description, voucher.Status,
		voucher.Posted, nullTime(voucher.PostedAt), voucher.OwnerID,
		voucher.CreatedAt, voucher.UpdatedAt,
	).Scan(&voucher.ID)
	if err != nil {
		return err
	}
	return insertEntriesTx(ctx, tx, voucher)
}

func insertEntriesTx(ctx context.Context, tx *sql.Tx, voucher *ledger.Voucher) error {
	for i := range voucher.Entries {
		e := &voucher.Entries[i]
		e.VoucherID = voucher.ID
		err := tx.QueryRowContext(ctx, `
INSERT INTO voucher_entries (voucher_id, account_id, direction, amount, description)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`,
			e.VoucherID, e.AccountID, e.Direction, e.Amount, e.Description,
		).Scan(&e.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get fetches one voucher with its entries.
func (r *VoucherRepository) Get(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("voucher repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, number, date, description, status, posted, posted_at, owner_id, created_at, updated_at
FROM vouchers
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	voucher, err := scanVoucher(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	voucher.Entries, err = r.loadEntries(ctx, voucher.ID)
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// GetEntry fetches a single entry scoped through its voucher's owner.
func (r *VoucherRepository) GetEntry(ctx context.Context, ownerID, entryID int64) (*ledger.VoucherEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("voucher repo: nil db")
	}
	var e ledger.VoucherEntry
	err := r.db.QueryRowContext(ctx, `
SELECT e.id, e.voucher_id, e.account_id, e.direction, e.amount, e.description
FROM voucher_entries e
JOIN vouchers v ON v.id = e.voucher_id
WHERE e.id = $1 AND v.owner_id = $2`, entryID, ownerID).Scan(
		&e.ID, &e.VoucherID, &e.AccountID, &e.Direction, &e.Amount, &e.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the owner's vouchers with entries, ordered by number.
func (r *VoucherRepository) List(ctx context.Context, ownerID int64) ([]ledger.Voucher, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("voucher repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, number, date, description, status, posted, posted_at, owner_id, created_at, updated_at
FROM vouchers
WHERE owner_id = $1
ORDER BY number ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []ledger.Voucher
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, *voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range vouchers {
		vouchers[i].Entries, err = r.loadEntries(ctx, vouchers[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return vouchers, nil
}

// Replace overwrites header fields and substitutes the entry set. Number and
// CreatedAt survive; callers guarantee the voucher is not posted.
func (r *VoucherRepository) Replace(ctx context.Context, voucher *ledger.Voucher) error {
	if r == nil || r.db == nil {
		return errors.New("voucher repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	voucher.UpdatedAt = time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
UPDATE vouchers
SET date = $1, description = $2, status = $3, updated_at = $4
WHERE id = $5 AND owner_id = $6`,
		voucher.Date, voucher.Description, voucher.Status, voucher.UpdatedAt,
		voucher.ID, voucher.OwnerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, ledger.ErrVoucherNotFound); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voucher_entries WHERE voucher_id = $1`, voucher.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertEntriesTx(ctx, tx, voucher); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete removes an unposted voucher and its entries.
func (r *VoucherRepository) Delete(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("voucher repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := deleteVoucherTx(ctx, tx, ownerID, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteWithReversal removes a posted voucher and applies the reversal deltas
// in the same transaction. The delete predicates on posted = TRUE, so a
// voucher a concurrent unpost already reversed rolls the whole thing back
// instead of reversing twice.
func (r *VoucherRepository) DeleteWithReversal(ctx context.Context, voucher *ledger.Voucher, deltas []ledger.AccountDelta) error {
	if r == nil || r.db == nil {
		return errors.New("voucher repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := ApplyDeltasTx(ctx, tx, deltas); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM voucher_entries
WHERE voucher_id IN (SELECT id FROM vouchers WHERE id = $1 AND owner_id = $2 AND posted = TRUE)`,
		voucher.ID, voucher.OwnerID); err != nil {
		_ = tx.Rollback()
		return err
	}
	result, err := tx.ExecContext(ctx, `
DELETE FROM vouchers WHERE id = $1 AND owner_id = $2 AND posted = TRUE`, voucher.ID, voucher.OwnerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, ledger.ErrNotPosted); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SetPosted flips the posted flag and applies the balance deltas together.
// The update predicates on the expected prior posted state, so of two racing
// posts (or unposts) exactly one applies the deltas and the other gets the
// conflict.
func (r *VoucherRepository) SetPosted(ctx context.Context, voucher *ledger.Voucher, posted bool, postedAt time.Time, status ledger.VoucherStatus, deltas []ledger.AccountDelta) error {
	if r == nil || r.db == nil {
		return errors.New("voucher repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
UPDATE vouchers
SET posted = $1, posted_at = $2, status = $3, updated_at = $4
WHERE id = $5 AND owner_id = $6 AND posted = $7`,
		posted, nullTime(postedAt), status, updatedAt, voucher.ID, voucher.OwnerID, !posted)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	conflict := ledger.ErrNotPosted
	if posted {
		conflict = ledger.ErrAlreadyPosted
	}
	if err := requireRow(result, conflict); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ApplyDeltasTx(ctx, tx, deltas); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	voucher.Posted = posted
	voucher.PostedAt = postedAt
	voucher.Status = status
	voucher.UpdatedAt = updatedAt
	return nil
}

func deleteVoucherTx(ctx context.Context, tx *sql.Tx, ownerID, id int64) error {
	if _, err := tx.ExecContext(ctx, `
DELETE FROM voucher_entries
WHERE voucher_id IN (SELECT id FROM vouchers WHERE id = $1 AND owner_id = $2)`, id, ownerID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM vouchers WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(result, ledger.ErrVoucherNotFound)
}

func (r *VoucherRepository) loadEntries(ctx context.Context, voucherID int64) ([]ledger.VoucherEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, voucher_id, account_id, direction, amount, description
FROM voucher_entries
WHERE voucher_id = $1
ORDER BY id ASC`, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.VoucherEntry
	for rows.Next() {
		var e ledger.VoucherEntry
		if err := rows.Scan(&e.ID, &e.VoucherID, &e.AccountID, &e.Direction, &e.Amount, &e.Description); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanVoucher(row rowScanner) (*ledger.Voucher, error) {
	var voucher ledger.Voucher
	var postedAt sql.NullTime
	err := row.Scan(
		&voucher.ID, &voucher.Number, &voucher.Date, &voucher.Description,
		&voucher.Status, &voucher.Posted, &postedAt, &voucher.OwnerID,
		&voucher.CreatedAt, &voucher.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	voucher.PostedAt = postedAt.Time
	return &voucher, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// placeholders renders "$start,$start+1,..." for n parameters.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
