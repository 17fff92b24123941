package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	ledger "finbooks/internal/ledger/domain"
)

// PaymentStatus is the execution state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// SourceKind tags which payable source a payment settled.
type SourceKind string

const (
	SourceBill          SourceKind = "bill"
	SourceTax           SourceKind = "tax_declaration"
	SourcePurchaseOrder SourceKind = "purchase_order"
)

// Payment is the result record of settling one source item. At most one of
// BillID, TaxDeclarationID and PurchaseOrderID is set.
type Payment struct {
	ID               int64
	BillID           int64
	TaxDeclarationID int64
	PurchaseOrderID  int64
	VoucherID        int64
	PaymentDate      time.Time
	Amount           decimal.Decimal
	Method           string
	BankAccountID    int64
	ReceiptNumber    string
	Status           PaymentStatus
	OwnerID          int64
	CreatedAt        time.Time
}

// SourceTransition is a payable status change committed with the batch.
// Repositories apply it conditionally on PrevStatus, so a source another
// batch already settled fails the whole transaction instead of paying twice.
type SourceTransition struct {
	Kind       SourceKind
	ID         int64
	PrevStatus string
	NewStatus  string
}

// BatchItem groups the records one settled source produces: its payment,
// its already-posted settlement voucher, and the source status transition.
type BatchItem struct {
	Payment    Payment
	Voucher    *ledger.Voucher
	Transition SourceTransition
}

// Batch is one all-or-nothing settlement. Deltas hold the aggregated balance
// mutations for the whole batch; repositories commit everything or nothing,
// and re-check the bank account against its deltas inside the transaction.
type Batch struct {
	OwnerID        int64
	BankAccountID  int64
	ReceiptNumber  string
	IdempotencyKey string
	ExecutedAt     time.Time
	Items          []BatchItem
	Deltas         []ledger.AccountDelta
}

// TotalAmount sums the payment amounts in the batch.
func (b *Batch) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Payment.Amount)
	}
	return total
}
