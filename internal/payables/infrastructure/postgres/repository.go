package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	payables "finbooks/internal/payables/domain"
)

// Repository persists vendors, bills, purchase orders and tax declarations.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateVendor inserts a vendor and assigns its id.
func (r *Repository) CreateVendor(ctx context.Context, v *payables.Vendor) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	return r.db.QueryRowContext(ctx, `
INSERT INTO vendors (name, contact, email, phone, address, description, owner_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		v.Name, v.Contact, v.Email, v.Phone, v.Address, v.Description,
		v.OwnerID, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
}

// GetVendor loads an owner's vendor.
func (r *Repository) GetVendor(ctx context.Context, ownerID, id int64) (*payables.Vendor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, contact, email, phone, address, description, owner_id, created_at, updated_at
FROM vendors
WHERE id = $1 AND owner_id = $2`, id, ownerID)
	vendor, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payables.ErrVendorNotFound
	}
	return vendor, err
}

// ListVendors returns the owner's vendors ordered by name.
func (r *Repository) ListVendors(ctx context.Context, ownerID int64) ([]payables.Vendor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, contact, email, phone, address, description, owner_id, created_at, updated_at
FROM vendors
WHERE owner_id = $1
ORDER BY name ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payables.Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *vendor)
	}
	return out, rows.Err()
}

// UpdateVendor overwrites a vendor's fields.
func (r *Repository) UpdateVendor(ctx context.Context, v *payables.Vendor) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	v.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE vendors
SET name = $1, contact = $2, email = $3, phone = $4, address = $5, description = $6, updated_at = $7
WHERE id = $8 AND owner_id = $9`,
		v.Name, v.Contact, v.Email, v.Phone, v.Address, v.Description,
		v.UpdatedAt, v.ID, v.OwnerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrVendorNotFound)
}

// DeleteVendor removes an owner's vendor.
func (r *Repository) DeleteVendor(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrVendorNotFound)
}

// CreateBill inserts a bill, generating a number when the caller left it
// blank.
func (r *Repository) CreateBill(ctx context.Context, b *payables.Bill) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, `
INSERT INTO bills (
	number, vendor_id, purchase_order_id, amount, due_date, status, description, owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id`,
		b.Number, b.VendorID, nullID(b.PurchaseOrderID), b.Amount, b.DueDate,
		b.Status, b.Description, b.OwnerID, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return err
	}
	if b.Number == "" {
		b.Number = fmt.Sprintf("BILL-%s-%04d", now.Format("20060102"), b.ID)
		_, err = r.db.ExecContext(ctx, `UPDATE bills SET number = $1 WHERE id = $2`, b.Number, b.ID)
	}
	return err
}

// GetBill loads an owner's bill.
func (r *Repository) GetBill(ctx context.Context, ownerID, id int64) (*payables.Bill, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, billSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payables.ErrBillNotFound
	}
	return bill, err
}

// ListBills returns the owner's bills, newest first.
func (r *Repository) ListBills(ctx context.Context, ownerID int64) ([]payables.Bill, error) {
	return r.queryBills(ctx, billSelect+` WHERE owner_id = $1 ORDER BY id DESC`, ownerID)
}

// ListBillsByStatus filters the owner's bills by status.
func (r *Repository) ListBillsByStatus(ctx context.Context, ownerID int64, status payables.BillStatus) ([]payables.Bill, error) {
	return r.queryBills(ctx, billSelect+` WHERE owner_id = $1 AND status = $2 ORDER BY id DESC`, ownerID, status)
}

// FindBillsByIDs returns the owner's bills among ids; missing ids are skipped.
func (r *Repository) FindBillsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.Bill, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := billSelect + ` WHERE owner_id = $1 AND id IN (` + placeholders(2, len(ids)) + `) ORDER BY id ASC`
	return r.queryBills(ctx, query, append([]any{ownerID}, int64Args(ids)...)...)
}

// UpdateBill overwrites a bill's fields.
func (r *Repository) UpdateBill(ctx context.Context, b *payables.Bill) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	b.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE bills
SET number = $1, vendor_id = $2, purchase_order_id = $3, amount = $4, due_date = $5,
    status = $6, description = $7, updated_at = $8
WHERE id = $9 AND owner_id = $10`,
		b.Number, b.VendorID, nullID(b.PurchaseOrderID), b.Amount, b.DueDate,
		b.Status, b.Description, b.UpdatedAt, b.ID, b.OwnerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrBillNotFound)
}

// DeleteBill removes an owner's bill.
func (r *Repository) DeleteBill(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrBillNotFound)
}

// CreateOrder inserts an order with items, claiming the order number from
// the owner's counter in the same transaction.
func (r *Repository) CreateOrder(ctx context.Context, po *payables.PurchaseOrder) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var seq int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO purchase_order_counters (owner_id, seq) VALUES ($1, 1)
ON CONFLICT (owner_id) DO UPDATE SET seq = purchase_order_counters.seq + 1
RETURNING seq`, po.OwnerID).Scan(&seq)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UTC()
	po.Number = fmt.Sprintf("%s-%04d", po.OrderDate.Format("20060102"), seq)
	po.CreatedAt = now
	po.UpdatedAt = now
	err = tx.QueryRowContext(ctx, `
INSERT INTO purchase_orders (number, vendor_id, order_date, description, status, owner_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`,
		po.Number, po.VendorID, po.OrderDate, po.Description, po.Status,
		po.OwnerID, po.CreatedAt, po.UpdatedAt,
	).Scan(&po.ID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertOrderItemsTx(ctx, tx, po); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertOrderItemsTx(ctx context.Context, tx *sql.Tx, po *payables.PurchaseOrder) error {
	for i := range po.Items {
		item := &po.Items[i]
		item.PurchaseOrderID = po.ID
		err := tx.QueryRowContext(ctx, `
INSERT INTO purchase_order_items (purchase_order_id, product_name, quantity, unit_price, account_id, description)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`,
			item.PurchaseOrderID, item.ProductName, item.Quantity, item.UnitPrice,
			nullID(item.AccountID), item.Description,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetOrder loads an owner's purchase order with items.
func (r *Repository) GetOrder(ctx context.Context, ownerID, id int64) (*payables.PurchaseOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, orderSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	po, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payables.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	po.Items, err = r.loadOrderItems(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	return po, nil
}

// ListOrders returns the owner's orders, newest first, with items.
func (r *Repository) ListOrders(ctx context.Context, ownerID int64) ([]payables.PurchaseOrder, error) {
	return r.queryOrders(ctx, orderSelect+` WHERE owner_id = $1 ORDER BY id DESC`, ownerID)
}

// ListOrdersByStatus filters the owner's orders by status.
func (r *Repository) ListOrdersByStatus(ctx context.Context, ownerID int64, status payables.PurchaseOrderStatus) ([]payables.PurchaseOrder, error) {
	return r.queryOrders(ctx, orderSelect+` WHERE owner_id = $1 AND status = $2 ORDER BY id DESC`, ownerID, status)
}

// FindOrdersByIDs returns the owner's orders among ids; missing ids are skipped.
func (r *Repository) FindOrdersByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.PurchaseOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := orderSelect + ` WHERE owner_id = $1 AND id IN (` + placeholders(2, len(ids)) + `) ORDER BY id ASC`
	return r.queryOrders(ctx, query, append([]any{ownerID}, int64Args(ids)...)...)
}

// UpdateOrder overwrites header fields and substitutes the item set.
func (r *Repository) UpdateOrder(ctx context.Context, po *payables.PurchaseOrder) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	po.UpdatedAt = time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
UPDATE purchase_orders
SET vendor_id = $1, order_date = $2, description = $3, status = $4, updated_at = $5
WHERE id = $6 AND owner_id = $7`,
		po.VendorID, po.OrderDate, po.Description, po.Status, po.UpdatedAt, po.ID, po.OwnerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, payables.ErrOrderNotFound); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, po.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertOrderItemsTx(ctx, tx, po); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteOrder removes an owner's order and its items.
func (r *Repository) DeleteOrder(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM purchase_order_items
WHERE purchase_order_id IN (SELECT id FROM purchase_orders WHERE id = $1 AND owner_id = $2)`, id, ownerID); err != nil {
		_ = tx.Rollback()
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result, payables.ErrOrderNotFound); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateDeclaration inserts a tax declaration and assigns its id.
func (r *Repository) CreateDeclaration(ctx context.Context, d *payables.TaxDeclaration) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	return r.db.QueryRowContext(ctx, `
INSERT INTO tax_declarations (
	period, tax_type, taxable_income, tax_rate, input_tax, output_tax, taxable_amount,
	deduction_amount, tax_payable, status, declared_at, receipt_number, failure_reason,
	owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING id`,
		d.Period, d.TaxType, d.TaxableIncome, d.TaxRate, d.InputTax, d.OutputTax,
		d.TaxableAmount, d.DeductionAmount, d.TaxPayable, d.Status, nullTime(d.DeclaredAt),
		d.ReceiptNumber, d.FailureReason, d.OwnerID, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID)
}

// GetDeclaration loads an owner's tax declaration.
func (r *Repository) GetDeclaration(ctx context.Context, ownerID, id int64) (*payables.TaxDeclaration, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, declarationSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	d, err := scanDeclaration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payables.ErrDeclarationNotFound
	}
	return d, err
}

// ListDeclarations returns the owner's declarations, newest first.
func (r *Repository) ListDeclarations(ctx context.Context, ownerID int64) ([]payables.TaxDeclaration, error) {
	return r.queryDeclarations(ctx, declarationSelect+` WHERE owner_id = $1 ORDER BY id DESC`, ownerID)
}

// ListDeclarationsByStatus filters the owner's declarations by status.
func (r *Repository) ListDeclarationsByStatus(ctx context.Context, ownerID int64, status payables.TaxDeclarationStatus) ([]payables.TaxDeclaration, error) {
	return r.queryDeclarations(ctx, declarationSelect+` WHERE owner_id = $1 AND status = $2 ORDER BY id DESC`, ownerID, status)
}

// FindDeclarationsByIDs returns the owner's declarations among ids; missing
// ids are skipped.
func (r *Repository) FindDeclarationsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.TaxDeclaration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := declarationSelect + ` WHERE owner_id = $1 AND id IN (` + placeholders(2, len(ids)) + `) ORDER BY id ASC`
	return r.queryDeclarations(ctx, query, append([]any{ownerID}, int64Args(ids)...)...)
}

// UpdateDeclaration overwrites a declaration's fields.
func (r *Repository) UpdateDeclaration(ctx context.Context, d *payables.TaxDeclaration) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	d.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE tax_declarations
SET period = $1, tax_type = $2, taxable_income = $3, tax_rate = $4, input_tax = $5,
    output_tax = $6, taxable_amount = $7, deduction_amount = $8, tax_payable = $9,
    status = $10, declared_at = $11, receipt_number = $12, failure_reason = $13, updated_at = $14
WHERE id = $15 AND owner_id = $16`,
		d.Period, d.TaxType, d.TaxableIncome, d.TaxRate, d.InputTax, d.OutputTax,
		d.TaxableAmount, d.DeductionAmount, d.TaxPayable, d.Status, nullTime(d.DeclaredAt),
		d.ReceiptNumber, d.FailureReason, d.UpdatedAt, d.ID, d.OwnerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrDeclarationNotFound)
}

// DeleteDeclaration removes an owner's tax declaration.
func (r *Repository) DeleteDeclaration(ctx context.Context, ownerID, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("payables repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM tax_declarations WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(result, payables.ErrDeclarationNotFound)
}

const billSelect = `
SELECT id, number, vendor_id, purchase_order_id, amount, due_date, status, description, owner_id, created_at, updated_at
FROM bills`

const orderSelect = `
SELECT id, number, vendor_id, order_date, description, status, owner_id, created_at, updated_at
FROM purchase_orders`

const declarationSelect = `
SELECT id, period, tax_type, taxable_income, tax_rate, input_tax, output_tax, taxable_amount,
       deduction_amount, tax_payable, status, declared_at, receipt_number, failure_reason,
       owner_id, created_at, updated_at
FROM tax_declarations`

func (r *Repository) queryBills(ctx context.Context, query string, args ...any) ([]payables.Bill, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payables.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bill)
	}
	return out, rows.Err()
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]payables.PurchaseOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payables.PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items, err = r.loadOrderItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) queryDeclarations(ctx context.Context, query string, args ...any) ([]payables.TaxDeclaration, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payables repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payables.TaxDeclaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *Repository) loadOrderItems(ctx context.Context, orderID int64) ([]payables.PurchaseOrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, purchase_order_id, product_name, quantity, unit_price, account_id, description
FROM purchase_order_items
WHERE purchase_order_id = $1
ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []payables.PurchaseOrderItem
	for rows.Next() {
		var item payables.PurchaseOrderItem
		var accountID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &accountID, &item.Description); err != nil {
			return nil, err
		}
		item.AccountID = accountID.Int64
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*payables.Vendor, error) {
	var v payables.Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Contact, &v.Email, &v.Phone, &v.Address,
		&v.Description, &v.OwnerID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanBill(row rowScanner) (*payables.Bill, error) {
	var b payables.Bill
	var orderID sql.NullInt64
	err := row.Scan(&b.ID, &b.Number, &b.VendorID, &orderID, &b.Amount, &b.DueDate,
		&b.Status, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.PurchaseOrderID = orderID.Int64
	return &b, nil
}

func scanOrder(row rowScanner) (*payables.PurchaseOrder, error) {
	var po payables.PurchaseOrder
	err := row.Scan(&po.ID, &po.Number, &po.VendorID, &po.OrderDate, &po.Description,
		&po.Status, &po.OwnerID, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func scanDeclaration(row rowScanner) (*payables.TaxDeclaration, error) {
	var d payables.TaxDeclaration
	var declaredAt sql.NullTime
	err := row.Scan(&d.ID, &d.Period, &d.TaxType, &d.TaxableIncome, &d.TaxRate,
		&d.InputTax, &d.OutputTax, &d.TaxableAmount, &d.DeductionAmount, &d.TaxPayable,
		&d.Status, &declaredAt, &d.ReceiptNumber, &d.FailureReason,
		&d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.DeclaredAt = declaredAt.Time
	return &d, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
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
