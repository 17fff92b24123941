package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ledgerpg "finbooks/internal/ledger/infrastructure/postgres"
	settlement "finbooks/internal/settlement/domain"
)

// PaymentRepository persists payments and commits settlement batches.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ExecuteBatch commits the whole settlement in one transaction: the
// idempotency record, per-item voucher and payment inserts, source status
// transitions, and the aggregated balance deltas. Any failure rolls the
// whole batch back, including the idempotency record, so the key stays
// usable for a retry.
func (r *PaymentRepository) ExecuteBatch(ctx context.Context, batch *settlement.Batch) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `
INSERT INTO settlement_executions (owner_id, idempotency_key, receipt_number, executed_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (owner_id, idempotency_key) DO NOTHING`,
		batch.OwnerID, batch.IdempotencyKey, batch.ReceiptNumber, batch.ExecutedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if inserted == 0 {
		_ = tx.Rollback()
		return settlement.ErrDuplicateExecution
	}

	now := time.Now().UTC()
	for i := range batch.Items {
		item := &batch.Items[i]
		if err := ledgerpg.InsertVoucherTx(ctx, tx, item.Voucher); err != nil {
			_ = tx.Rollback()
			return err
		}
		item.Payment.VoucherID = item.Voucher.ID
		item.Payment.CreatedAt = now
		if err := insertPaymentTx(ctx, tx, &item.Payment); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := applyTransitionTx(ctx, tx, batch.OwnerID, item.Transition, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := ledgerpg.ApplyDeltasTx(ctx, tx, batch.Deltas); err != nil {
		_ = tx.Rollback()
		return err
	}
	// The orchestrator's funds check ran against a balance read outside this
	// transaction. Re-read after the deltas so two batches racing over the
	// same bank account cannot overdraw it.
	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx, `
SELECT balance FROM accounts WHERE id = $1 AND owner_id = $2`,
		batch.BankAccountID, batch.OwnerID).Scan(&balance); err != nil {
		_ = tx.Rollback()
		return err
	}
	if balance.IsNegative() {
		_ = tx.Rollback()
		return settlement.ErrInsufficientFunds
	}
	return tx.Commit()
}

func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *settlement.Payment) error {
	return tx.QueryRowContext(ctx, `
INSERT INTO payments (
	bill_id, tax_declaration_id, purchase_order_id, voucher_id, payment_date, amount,
	method, bank_account_id, receipt_number, status, owner_id, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id`,
		nullID(p.BillID), nullID(p.TaxDeclarationID), nullID(p.PurchaseOrderID),
		p.VoucherID, p.PaymentDate, p.Amount, p.Method, p.BankAccountID,
		p.ReceiptNumber, p.Status, p.OwnerID, p.CreatedAt,
	).Scan(&p.ID)
}

// applyTransitionTx predicates on the expected prior status: a source a
// concurrent batch already settled matches zero rows and fails this batch.
func applyTransitionTx(ctx context.Context, tx *sql.Tx, ownerID int64, t settlement.SourceTransition, now time.Time) error {
	var query string
	switch t.Kind {
	case settlement.SourceBill:
		query = `UPDATE bills SET status = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4 AND status = $5`
	case settlement.SourceTax:
		query = `UPDATE tax_declarations SET status = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4 AND status = $5`
	case settlement.SourcePurchaseOrder:
		query = `UPDATE purchase_orders SET status = $1, updated_at = $2 WHERE id = $3 AND owner_id = $4 AND status = $5`
	default:
		return fmt.Errorf("settlement: unknown source kind %q", t.Kind)
	}
	result, err := tx.ExecContext(ctx, query, t.NewStatus, now, t.ID, ownerID, t.PrevStatus)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %d left %s state", settlement.ErrSourceNotPayable, t.Kind, t.ID, t.PrevStatus)
	}
	return nil
}

// SeenIdempotencyKey reports whether the owner already committed a batch
// with this key.
func (r *PaymentRepository) SeenIdempotencyKey(ctx context.Context, ownerID int64, key string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("payment repo: nil db")
	}
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM settlement_executions WHERE owner_id = $1 AND idempotency_key = $2`,
		ownerID, key).Scan(&n)
	return n > 0, err
}

// GetPayment loads an owner's payment.
func (r *PaymentRepository) GetPayment(ctx context.Context, ownerID, id int64) (*settlement.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, paymentSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, settlement.ErrPaymentNotFound
	}
	return p, err
}

// ListPayments returns the owner's payments, newest first.
func (r *PaymentRepository) ListPayments(ctx context.Context, ownerID int64) ([]settlement.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, paymentSelect+` WHERE owner_id = $1 ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

const paymentSelect = `
SELECT id, bill_id, tax_declaration_id, purchase_order_id, voucher_id, payment_date, amount,
       method, bank_account_id, receipt_number, status, owner_id, created_at
FROM payments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*settlement.Payment, error) {
	var p settlement.Payment
	var billID, taxID, orderID sql.NullInt64
	err := row.Scan(&p.ID, &billID, &taxID, &orderID, &p.VoucherID, &p.PaymentDate,
		&p.Amount, &p.Method, &p.BankAccountID, &p.ReceiptNumber, &p.Status,
		&p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.BillID = billID.Int64
	p.TaxDeclarationID = taxID.Int64
	p.PurchaseOrderID = orderID.Int64
	return &p, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
