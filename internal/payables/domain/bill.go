package payables

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus is the payable lifecycle of a bill. Only awaiting-payment bills
// may be consumed by the settlement workflow.
type BillStatus string

const (
	BillStatusPendingReview   BillStatus = "pending_review"
	BillStatusAwaitingPayment BillStatus = "awaiting_payment"
	BillStatusPaid            BillStatus = "paid"
)

// Bill is a vendor invoice awaiting settlement.
type Bill struct {
	ID              int64
	Number          string
	VendorID        int64
	PurchaseOrderID int64 // 0 = not linked to an order
	Amount          decimal.Decimal
	DueDate         time.Time
	Status          BillStatus
	Description     string
	OwnerID         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
