package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	payables "finbooks/internal/payables/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AwaitingItem is one payable item ready for settlement, aggregated across
// bills, tax declarations and purchase orders.
type AwaitingItem struct {
	Kind        string // "bill", "tax_declaration", "purchase_order"
	ID          int64
	Reference   string
	VendorID    int64
	Amount      decimal.Decimal
	Description string
}

// Service handles vendor, bill, purchase order and tax declaration use
// cases. Everything is owner-scoped.
type Service struct {
	repo   payables.Repository
	clock  Clock
	logger *log.Logger
}

// NewService constructs the service.
func NewService(repo payables.Repository, clock Clock, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("payables service: nil repository")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, clock: clock, logger: logger}, nil
}

// CreateVendor stores a vendor.
func (s *Service) CreateVendor(ctx context.Context, ownerID int64, v *payables.Vendor) (*payables.Vendor, error) {
	v.OwnerID = ownerID
	if err := s.repo.CreateVendor(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVendor loads one vendor.
func (s *Service) GetVendor(ctx context.Context, ownerID, id int64) (*payables.Vendor, error) {
	return s.repo.GetVendor(ctx, ownerID, id)
}

// ListVendors returns the owner's vendors.
func (s *Service) ListVendors(ctx context.Context, ownerID int64) ([]payables.Vendor, error) {
	return s.repo.ListVendors(ctx, ownerID)
}

// UpdateVendor overwrites a vendor's fields.
func (s *Service) UpdateVendor(ctx context.Context, ownerID int64, v *payables.Vendor) (*payables.Vendor, error) {
	v.OwnerID = ownerID
	if err := s.repo.UpdateVendor(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVendor removes a vendor.
func (s *Service) DeleteVendor(ctx context.Context, ownerID, id int64) error {
	return s.repo.DeleteVendor(ctx, ownerID, id)
}

// CreateBill stores a bill. New bills start in pending_review unless the
// caller sets a status explicitly.
func (s *Service) CreateBill(ctx context.Context, ownerID int64, b *payables.Bill) (*payables.Bill, error) {
	b.OwnerID = ownerID
	if b.VendorID != 0 {
		if _, err := s.repo.GetVendor(ctx, ownerID, b.VendorID); err != nil {
			return nil, err
		}
	}
	if b.Status == "" {
		b.Status = payables.BillStatusPendingReview
	}
	if err := s.repo.CreateBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBill loads one bill.
func (s *Service) GetBill(ctx context.Context, ownerID, id int64) (*payables.Bill, error) {
	return s.repo.GetBill(ctx, ownerID, id)
}

// ListBills returns the owner's bills, optionally filtered by status.
func (s *Service) ListBills(ctx context.Context, ownerID int64, status payables.BillStatus) ([]payables.Bill, error) {
	if status == "" {
		return s.repo.ListBills(ctx, ownerID)
	}
	return s.repo.ListBillsByStatus(ctx, ownerID, status)
}

// UpdateBill overwrites a bill's fields.
func (s *Service) UpdateBill(ctx context.Context, ownerID int64, b *payables.Bill) (*payables.Bill, error) {
	b.OwnerID = ownerID
	if err := s.repo.UpdateBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBill removes a bill.
func (s *Service) DeleteBill(ctx context.Context, ownerID, id int64) error {
	return s.repo.DeleteBill(ctx, ownerID, id)
}

// CreateOrder stores a purchase order. The order number comes from a
// per-owner counter in the repository.
func (s *Service) CreateOrder(ctx context.Context, ownerID int64, po *payables.PurchaseOrder) (*payables.PurchaseOrder, error) {
	po.OwnerID = ownerID
	if po.VendorID != 0 {
		if _, err := s.repo.GetVendor(ctx, ownerID, po.VendorID); err != nil {
			return nil, err
		}
	}
	if po.Status == "" {
		po.Status = payables.PurchaseOrderStatusPending
	}
	if po.OrderDate.IsZero() {
		po.OrderDate = s.clock.Now()
	}
	if err := s.repo.CreateOrder(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// GetOrder loads one purchase order.
func (s *Service) GetOrder(ctx context.Context, ownerID, id int64) (*payables.PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, ownerID, id)
}

// ListOrders returns the owner's purchase orders, optionally by status.
func (s *Service) ListOrders(ctx context.Context, ownerID int64, status payables.PurchaseOrderStatus) ([]payables.PurchaseOrder, error) {
	if status == "" {
		return s.repo.ListOrders(ctx, ownerID)
	}
	return s.repo.ListOrdersByStatus(ctx, ownerID, status)
}

// UpdateOrder overwrites header fields and replaces the item set.
func (s *Service) UpdateOrder(ctx context.Context, ownerID int64, po *payables.PurchaseOrder) (*payables.PurchaseOrder, error) {
	po.OwnerID = ownerID
	if err := s.repo.UpdateOrder(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// DeleteOrder removes a purchase order with its items.
func (s *Service) DeleteOrder(ctx context.Context, ownerID, id int64) error {
	return s.repo.DeleteOrder(ctx, ownerID, id)
}

// CreateDeclaration stores a tax declaration in pending state.
func (s *Service) CreateDeclaration(ctx context.Context, ownerID int64, d *payables.TaxDeclaration) (*payables.TaxDeclaration, error) {
	d.OwnerID = ownerID
	if d.Status == "" {
		d.Status = payables.TaxStatusPending
	}
	if err := s.repo.CreateDeclaration(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDeclaration loads one declaration.
func (s *Service) GetDeclaration(ctx context.Context, ownerID, id int64) (*payables.TaxDeclaration, error) {
	return s.repo.GetDeclaration(ctx, ownerID, id)
}

// ListDeclarations returns the owner's declarations, optionally by status.
func (s *Service) ListDeclarations(ctx context.Context, ownerID int64, status payables.TaxDeclarationStatus) ([]payables.TaxDeclaration, error) {
	if status == "" {
		return s.repo.ListDeclarations(ctx, ownerID)
	}
	return s.repo.ListDeclarationsByStatus(ctx, ownerID, status)
}

// UpdateDeclaration overwrites a declaration's fields.
func (s *Service) UpdateDeclaration(ctx context.Context, ownerID int64, d *payables.TaxDeclaration) (*payables.TaxDeclaration, error) {
	d.OwnerID = ownerID
	if err := s.repo.UpdateDeclaration(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDeclaration removes a declaration.
func (s *Service) DeleteDeclaration(ctx context.Context, ownerID, id int64) error {
	return s.repo.DeleteDeclaration(ctx, ownerID, id)
}

// SubmitDeclaration files a declaration with the simulated tax authority:
// the filing always succeeds, stamping a receipt number and declared-at.
func (s *Service) SubmitDeclaration(ctx context.Context, ownerID, id int64) (*payables.TaxDeclaration, error) {
	d, err := s.repo.GetDeclaration(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	d.Status = payables.TaxStatusSuccess
	d.DeclaredAt = now
	d.ReceiptNumber = fmt.Sprintf("TAX-%s-%d", now.Format("20060102150405"), d.ID)
	d.FailureReason = ""
	if err := s.repo.UpdateDeclaration(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Printf("payables: declaration %d filed, receipt %s", d.ID, d.ReceiptNumber)
	return d, nil
}

// AwaitingPayment aggregates everything the settlement workflow can pay:
// bills awaiting payment, successfully filed declarations and approved
// purchase orders.
func (s *Service) AwaitingPayment(ctx context.Context, ownerID int64) ([]AwaitingItem, error) {
	var out []AwaitingItem

	bills, err := s.repo.ListBillsByStatus(ctx, ownerID, payables.BillStatusAwaitingPayment)
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		out = append(out, AwaitingItem{
			Kind:        "bill",
			ID:          b.ID,
			Reference:   b.Number,
			VendorID:    b.VendorID,
			Amount:      b.Amount,
			Description: b.Description,
		})
	}

	declarations, err := s.repo.ListDeclarationsByStatus(ctx, ownerID, payables.TaxStatusSuccess)
	if err != nil {
		return nil, err
	}
	for _, d := range declarations {
		out = append(out, AwaitingItem{
			Kind:        "tax_declaration",
			ID:          d.ID,
			Reference:   d.ReceiptNumber,
			Amount:      d.TaxPayable,
			Description: fmt.Sprintf("%s %s", d.TaxType, d.Period),
		})
	}

	orders, err := s.repo.ListOrdersByStatus(ctx, ownerID, payables.PurchaseOrderStatusApproved)
	if err != nil {
		return nil, err
	}
	for _, po := range orders {
		out = append(out, AwaitingItem{
			Kind:        "purchase_order",
			ID:          po.ID,
			Reference:   po.Number,
			VendorID:    po.VendorID,
			Amount:      po.Total(),
			Description: po.Description,
		})
	}
	return out, nil
}
