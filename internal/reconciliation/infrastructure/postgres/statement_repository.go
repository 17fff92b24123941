package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	reconciliation "finbooks/internal/reconciliation/domain"
)

// StatementRepository persists bank statements and their line items.
type StatementRepository struct {
	db *sql.DB
}

// NewStatementRepository constructs a repository.
func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// CreateStatement inserts the statement and all its items in one transaction.
func (r *StatementRepository) CreateStatement(ctx context.Context, stmt *reconciliation.BankStatement) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	stmt.CreatedAt = now
	stmt.UpdatedAt = now
	err = tx.QueryRowContext(ctx, `
INSERT INTO bank_statements (
	account_id, statement_date, opening_balance, closing_balance, status, owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`,
		stmt.AccountID, stmt.StatementDate, stmt.OpeningBalance, stmt.ClosingBalance,
		stmt.Status, stmt.OwnerID, stmt.CreatedAt, stmt.UpdatedAt,
	).Scan(&stmt.ID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertItemsTx(ctx, tx, stmt.ID, stmt.Items); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertItemsTx(ctx context.Context, tx *sql.Tx, statementID int64, items []reconciliation.StatementItem) error {
	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		item.StatementID = statementID
		item.CreatedAt = now
		item.UpdatedAt = now
		err := tx.QueryRowContext(ctx, `
INSERT INTO bank_statement_items (
	statement_id, transaction_date, description, amount, balance, reconciled, voucher_entry_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
			item.StatementID, item.TransactionDate, item.Description, item.Amount,
			item.Balance, item.Reconciled, nullEntryID(item.VoucherEntryID),
			item.CreatedAt, item.UpdatedAt,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetStatement fetches one statement with its items.
func (r *StatementRepository) GetStatement(ctx context.Context, ownerID, id int64) (*reconciliation.BankStatement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, account_id, statement_date, opening_balance, closing_balance, status, owner_id, created_at, updated_at
FROM bank_statements
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	stmt, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconciliation.ErrStatementNotFound
	}
	if err != nil {
		return nil, err
	}
	stmt.Items, err = r.loadItems(ctx, stmt.ID)
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// ListStatements returns the owner's statements, newest first, with items.
func (r *StatementRepository) ListStatements(ctx context.Context, ownerID int64) ([]reconciliation.BankStatement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_id, statement_date, opening_balance, closing_balance, status, owner_id, created_at, updated_at
FROM bank_statements
WHERE owner_id = $1
ORDER BY statement_date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stmts []reconciliation.BankStatement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, *stmt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range stmts {
		stmts[i].Items, err = r.loadItems(ctx, stmts[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

// UpdateStatement overwrites header fields; items are managed separately.
func (r *StatementRepository) UpdateStatement(ctx context.Context, stmt *reconciliation.BankStatement) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	stmt.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE bank_statements
SET account_id = $1, statement_date = $2, opening_balance = $3, closing_balance = $4, updated_at = $5
WHERE id = $6 AND owner_id = $7`,
		stmt.AccountID, stmt.StatementDate, stmt.OpeningBalance, stmt.ClosingBalance,
		stmt.UpdatedAt, stmt.ID, stmt.OwnerID)
	if err != nil {
		return err
	}
	return requireRow(result, reconciliation.ErrStatementNotFound)
}

// DeleteStatement removes a statement and its items.
func (r *StatementRepository) DeleteStatement(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM bank_statement_items
WHERE statement_id IN (SELECT id FROM bank_statements WHERE id = $1 AND owner_id = $2)`, id, ownerID); err != nil {
		_ = tx.Rollback()
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM bank_statements WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, reconciliation.ErrStatementNotFound); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// AddItems appends items to an existing statement and re-derives its status
// in the same transaction.
func (r *StatementRepository) AddItems(ctx context.Context, ownerID, statementID int64, items []reconciliation.StatementItem) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var id int64
	err = tx.QueryRowContext(ctx, `
SELECT id FROM bank_statements WHERE id = $1 AND owner_id = $2`, statementID, ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return reconciliation.ErrStatementNotFound
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertItemsTx(ctx, tx, statementID, items); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := refreshStatusTx(ctx, tx, statementID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetItem fetches one item scoped through its statement's owner.
func (r *StatementRepository) GetItem(ctx context.Context, ownerID, itemID int64) (*reconciliation.StatementItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT i.id, i.statement_id, i.transaction_date, i.description, i.amount, i.balance,
       i.reconciled, i.voucher_entry_id, i.created_at, i.updated_at
FROM bank_statement_items i
JOIN bank_statements s ON s.id = i.statement_id
WHERE i.id = $1 AND s.owner_id = $2`, itemID, ownerID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconciliation.ErrItemNotFound
	}
	return item, err
}

// SetItemLink stores the item's link state and the statement's derived
// status in one transaction.
func (r *StatementRepository) SetItemLink(ctx context.Context, ownerID int64, item *reconciliation.StatementItem, status reconciliation.StatementStatus) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
UPDATE bank_statement_items i
SET reconciled = $1, voucher_entry_id = $2, updated_at = $3
FROM bank_statements s
WHERE i.id = $4 AND s.id = i.statement_id AND s.owner_id = $5`,
		item.Reconciled, nullEntryID(item.VoucherEntryID), now, item.ID, ownerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, reconciliation.ErrItemNotFound); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE bank_statements SET status = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4`,
		status, now, item.StatementID, ownerID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	item.UpdatedAt = now
	return nil
}

// ListCandidateEntries returns bank-account voucher entries not already
// claimed by a reconciled statement item, ordered by voucher number.
func (r *StatementRepository) ListCandidateEntries(ctx context.Context, ownerID int64, bankAccountIDs []int64) ([]reconciliation.CandidateEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	if len(bankAccountIDs) == 0 {
		return nil, nil
	}
	query := `
SELECT e.id, v.number, v.date, e.account_id, a.name, e.description, e.amount, e.direction
FROM voucher_entries e
JOIN vouchers v ON v.id = e.voucher_id
JOIN accounts a ON a.id = e.account_id
WHERE v.owner_id = $1
  AND e.account_id IN (` + inPlaceholders(2, len(bankAccountIDs)) + `)
  AND NOT EXISTS (
	SELECT 1 FROM bank_statement_items i
	JOIN bank_statements s ON s.id = i.statement_id
	WHERE i.voucher_entry_id = e.id AND i.reconciled AND s.owner_id = $1
  )
ORDER BY v.number ASC, e.id ASC`
	args := make([]any, 0, len(bankAccountIDs)+1)
	args = append(args, ownerID)
	for _, id := range bankAccountIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconciliation.CandidateEntry
	for rows.Next() {
		var c reconciliation.CandidateEntry
		if err := rows.Scan(&c.EntryID, &c.VoucherNumber, &c.VoucherDate, &c.AccountID,
			&c.AccountName, &c.Description, &c.Amount, &c.Direction); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *StatementRepository) loadItems(ctx context.Context, statementID int64) ([]reconciliation.StatementItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, statement_id, transaction_date, description, amount, balance,
       reconciled, voucher_entry_id, created_at, updated_at
FROM bank_statement_items
WHERE statement_id = $1
ORDER BY transaction_date ASC, id ASC`, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []reconciliation.StatementItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func refreshStatusTx(ctx context.Context, tx *sql.Tx, statementID int64) error {
	rows, err := tx.QueryContext(ctx, `
SELECT reconciled FROM bank_statement_items WHERE statement_id = $1`, statementID)
	if err != nil {
		return err
	}
	defer rows.Close()
	var items []reconciliation.StatementItem
	for rows.Next() {
		var reconciled bool
		if err := rows.Scan(&reconciled); err != nil {
			return err
		}
		items = append(items, reconciliation.StatementItem{Reconciled: reconciled})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE bank_statements SET status = $1, updated_at = $2 WHERE id = $3`,
		reconciliation.DeriveStatus(items), time.Now().UTC(), statementID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (*reconciliation.BankStatement, error) {
	var stmt reconciliation.BankStatement
	err := row.Scan(
		&stmt.ID, &stmt.AccountID, &stmt.StatementDate, &stmt.OpeningBalance,
		&stmt.ClosingBalance, &stmt.Status, &stmt.OwnerID, &stmt.CreatedAt, &stmt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stmt, nil
}

func scanItem(row rowScanner) (*reconciliation.StatementItem, error) {
	var item reconciliation.StatementItem
	var entryID sql.NullInt64
	err := row.Scan(
		&item.ID, &item.StatementID, &item.TransactionDate, &item.Description,
		&item.Amount, &item.Balance, &item.Reconciled, &entryID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.VoucherEntryID = entryID.Int64
	return &item, nil
}

func nullEntryID(id int64) sql.NullInt64 {
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

func inPlaceholders(start, n int) string {
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
