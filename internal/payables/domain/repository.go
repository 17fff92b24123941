package payables

import "context"

// Repository persists payable-source entities. Batch lookups return only
// rows owned by ownerID; callers compare lengths to detect missing or
// foreign-owned ids.
type Repository interface {
	CreateVendor(ctx context.Context, v *Vendor) error
	GetVendor(ctx context.Context, ownerID, id int64) (*Vendor, error)
	ListVendors(ctx context.Context, ownerID int64) ([]Vendor, error)
	UpdateVendor(ctx context.Context, v *Vendor) error
	DeleteVendor(ctx context.Context, ownerID, id int64) error

	CreateBill(ctx context.Context, b *Bill) error
	GetBill(ctx context.Context, ownerID, id int64) (*Bill, error)
	ListBills(ctx context.Context, ownerID int64) ([]Bill, error)
	ListBillsByStatus(ctx context.Context, ownerID int64, status BillStatus) ([]Bill, error)
	FindBillsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]Bill, error)
	UpdateBill(ctx context.Context, b *Bill) error
	DeleteBill(ctx context.Context, ownerID, id int64) error

	// CreateOrder assigns the order number from a per-owner counter inside
	// the insert transaction.
	CreateOrder(ctx context.Context, po *PurchaseOrder) error
	GetOrder(ctx context.Context, ownerID, id int64) (*PurchaseOrder, error)
	ListOrders(ctx context.Context, ownerID int64) ([]PurchaseOrder, error)
	ListOrdersByStatus(ctx context.Context, ownerID int64, status PurchaseOrderStatus) ([]PurchaseOrder, error)
	FindOrdersByIDs(ctx context.Context, ownerID int64, ids []int64) ([]PurchaseOrder, error)
	UpdateOrder(ctx context.Context, po *PurchaseOrder) error
	DeleteOrder(ctx context.Context, ownerID, id int64) error

	CreateDeclaration(ctx context.Context, d *TaxDeclaration) error
	GetDeclaration(ctx context.Context, ownerID, id int64) (*TaxDeclaration, error)
	ListDeclarations(ctx context.Context, ownerID int64) ([]TaxDeclaration, error)
	ListDeclarationsByStatus(ctx context.Context, ownerID int64, status TaxDeclarationStatus) ([]TaxDeclaration, error)
	FindDeclarationsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]TaxDeclaration, error)
	UpdateDeclaration(ctx context.Context, d *TaxDeclaration) error
	DeleteDeclaration(ctx context.Context, ownerID, id int64) error
}
