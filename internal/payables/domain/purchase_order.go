package payables

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the order lifecycle. Only approved orders may be
// consumed by the settlement workflow; settling completes them.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "pending"
	PurchaseOrderStatusApproved  PurchaseOrderStatus = "approved"
	PurchaseOrderStatusCompleted PurchaseOrderStatus = "completed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrder is a vendor order with line items. Items are replaced as a
// set on update and removed with the order.
type PurchaseOrder struct {
	ID          int64
	Number      string // "YYYYMMDD-NNNN", monotonic per owner
	VendorID    int64
	OrderDate   time.Time
	Description string
	Status      PurchaseOrderStatus
	OwnerID     int64
	Items       []PurchaseOrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PurchaseOrderItem is one product line on an order.
type PurchaseOrderItem struct {
	ID              int64
	PurchaseOrderID int64
	ProductName     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	AccountID       int64 // 0 = not mapped to an expense account
	Description     string
}

// Total returns the order amount, quantity times unit price over all items.
func (po *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range po.Items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total
}
