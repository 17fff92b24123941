package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledger "finbooks/internal/ledger/domain"
)

// AccountRepository persists the chart of accounts.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an account and assigns its id.
func (r *AccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	return r.db.QueryRowContext(ctx, `
INSERT INTO accounts (
	code, name, type, parent_id, description, balance, owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		account.Code, account.Name, account.Type, nullID(account.ParentID), account.Description,
		account.Balance, account.OwnerID, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
}

// Get fetches one account scoped by owner.
func (r *AccountRepository) Get(ctx context.Context, ownerID, id int64) (*ledger.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, code, name, type, parent_id, description, balance, owner_id, created_at, updated_at
FROM accounts
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	return account, err
}

// List returns the owner's accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, ownerID int64) ([]ledger.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, code, name, type, parent_id, description, balance, owner_id, created_at, updated_at
FROM accounts
WHERE owner_id = $1
ORDER BY code ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListByIDs returns the owner's accounts among ids; missing ids are skipped.
func (r *AccountRepository) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]ledger.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
SELECT id, code, name, type, parent_id, description, balance, owner_id, created_at, updated_at
FROM accounts
WHERE owner_id = $1 AND id IN (` + placeholders(2, len(ids)) + `)
ORDER BY code ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, append([]any{ownerID}, int64Args(ids)...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// Update overwrites an account's fields.
func (r *AccountRepository) Update(ctx context.Context, account *ledger.Account) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	account.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET code = $1, name = $2, type = $3, parent_id = $4, description = $5, updated_at = $6
WHERE id = $7 AND owner_id = $8`,
		account.Code, account.Name, account.Type, nullID(account.ParentID), account.Description,
		account.UpdatedAt, account.ID, account.OwnerID)
	if err != nil {
		return err
	}
	return requireRow(result, ledger.ErrAccountNotFound)
}

// Delete removes an owner's account.
func (r *AccountRepository) Delete(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(result, ledger.ErrAccountNotFound)
}

// CountByType counts the owner's accounts of one type.
func (r *AccountRepository) CountByType(ctx context.Context, ownerID int64, t ledger.AccountType) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("account repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM accounts WHERE owner_id = $1 AND type = $2`, ownerID, t).Scan(&count)
	return count, err
}

// FirstByCodePrefix returns the owner's lowest-coded account matching
// prefix, or nil when absent.
func (r *AccountRepository) FirstByCodePrefix(ctx context.Context, ownerID int64, prefix string) (*ledger.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, code, name, type, parent_id, description, balance, owner_id, created_at, updated_at
FROM accounts
WHERE owner_id = $1 AND code LIKE $2 || '%'
ORDER BY code ASC, id ASC
LIMIT 1`, ownerID, prefix)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

// ApplyDeltas mutates balances in one transaction.
func (r *AccountRepository) ApplyDeltas(ctx context.Context, deltas []ledger.AccountDelta) error {
	if r == nil || r.db == nil {
		return errors.New("account repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := ApplyDeltasTx(ctx, tx, deltas); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ApplyDeltasTx applies balance deltas inside an existing transaction, so
// posting flags, payments and balances can commit together.
func ApplyDeltasTx(ctx context.Context, tx *sql.Tx, deltas []ledger.AccountDelta) error {
	now := time.Now().UTC()
	for _, d := range deltas {
		result, err := tx.ExecContext(ctx, `
UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
			d.Delta, now, d.AccountID)
		if err != nil {
			return err
		}
		if err := requireRow(result, ledger.ErrAccountNotFound); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var account ledger.Account
	var parentID sql.NullInt64
	err := row.Scan(
		&account.ID, &account.Code, &account.Name, &account.Type, &parentID,
		&account.Description, &account.Balance, &account.OwnerID,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.ParentID = parentID.Int64
	return &account, nil
}

func collectAccounts(rows *sql.Rows) ([]ledger.Account, error) {
	var out []ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *account)
	}
	return out, rows.Err()
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func requireRow(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}
