package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	payables "finbooks/internal/payables/domain"
)

// CreateVendor stores a new vendor and assigns its id.
func (s *Store) CreateVendor(ctx context.Context, v *payables.Vendor) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextVendorID++
	v.ID = s.nextVendorID
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	stored := *v
	s.vendors[v.ID] = &stored
	return nil
}

// GetVendor loads an owner's vendor.
func (s *Store) GetVendor(ctx context.Context, ownerID, id int64) (*payables.Vendor, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.vendors[id]
	if v == nil || v.OwnerID != ownerID {
		return nil, payables.ErrVendorNotFound
	}
	out := *v
	return &out, nil
}

// ListVendors returns the owner's vendors ordered by name.
func (s *Store) ListVendors(ctx context.Context, ownerID int64) ([]payables.Vendor, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payables.Vendor
	for _, v := range s.vendors {
		if v.OwnerID == ownerID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateVendor overwrites a vendor's fields.
func (s *Store) UpdateVendor(ctx context.Context, v *payables.Vendor) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.vendors[v.ID]
	if existing == nil || existing.OwnerID != v.OwnerID {
		return payables.ErrVendorNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()
	stored := *v
	s.vendors[v.ID] = &stored
	return nil
}

// DeleteVendor removes an owner's vendor.
func (s *Store) DeleteVendor(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.vendors[id]
	if v == nil || v.OwnerID != ownerID {
		return payables.ErrVendorNotFound
	}
	delete(s.vendors, id)
	return nil
}

// CreateBill stores a new bill and assigns its id.
func (s *Store) CreateBill(ctx context.Context, b *payables.Bill) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBillID++
	b.ID = s.nextBillID
	if b.Number == "" {
		b.Number = fmt.Sprintf("BILL-%s-%04d", time.Now().UTC().Format("20060102"), b.ID)
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	stored := *b
	s.bills[b.ID] = &stored
	return nil
}

// GetBill loads an owner's bill.
func (s *Store) GetBill(ctx context.Context, ownerID, id int64) (*payables.Bill, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.bills[id]
	if b == nil || b.OwnerID != ownerID {
		return nil, payables.ErrBillNotFound
	}
	out := *b
	return &out, nil
}

// ListBills returns the owner's bills ordered by due date.
func (s *Store) ListBills(ctx context.Context, ownerID int64) ([]payables.Bill, error) {
	return s.listBills(ownerID, nil)
}

// ListBillsByStatus returns the owner's bills in one status.
func (s *Store) ListBillsByStatus(ctx context.Context, ownerID int64, status payables.BillStatus) ([]payables.Bill, error) {
	_ = ctx
	return s.listBills(ownerID, func(b *payables.Bill) bool { return b.Status == status })
}

func (s *Store) listBills(ownerID int64, keep func(*payables.Bill) bool) ([]payables.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payables.Bill
	for _, b := range s.bills {
		if b.OwnerID != ownerID {
			continue
		}
		if keep != nil && !keep(b) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindBillsByIDs returns the owner's bills among ids; missing ids are skipped.
func (s *Store) FindBillsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.Bill, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]payables.Bill, 0, len(ids))
	for _, id := range ids {
		if b := s.bills[id]; b != nil && b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// UpdateBill overwrites a bill's fields.
func (s *Store) UpdateBill(ctx context.Context, b *payables.Bill) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.bills[b.ID]
	if existing == nil || existing.OwnerID != b.OwnerID {
		return payables.ErrBillNotFound
	}
	b.Number = existing.Number
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	stored := *b
	s.bills[b.ID] = &stored
	return nil
}

// DeleteBill removes an owner's bill.
func (s *Store) DeleteBill(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bills[id]
	if b == nil || b.OwnerID != ownerID {
		return payables.ErrBillNotFound
	}
	delete(s.bills, id)
	return nil
}

// CreateOrder stores a new purchase order; the order number comes from the
// per-owner counter under the same lock as the insert.
func (s *Store) CreateOrder(ctx context.Context, po *payables.PurchaseOrder) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrderID++
	po.ID = s.nextOrderID
	s.orderSeq[po.OwnerID]++
	po.Number = fmt.Sprintf("%s-%04d", po.OrderDate.Format("20060102"), s.orderSeq[po.OwnerID])
	now := time.Now().UTC()
	po.CreatedAt = now
	po.UpdatedAt = now
	for i := range po.Items {
		s.nextItemID++
		po.Items[i].ID = s.nextItemID
		po.Items[i].PurchaseOrderID = po.ID
	}
	s.orders[po.ID] = cloneOrder(po)
	return nil
}

// GetOrder loads an owner's purchase order with items.
func (s *Store) GetOrder(ctx context.Context, ownerID, id int64) (*payables.PurchaseOrder, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	po := s.orders[id]
	if po == nil || po.OwnerID != ownerID {
		return nil, payables.ErrOrderNotFound
	}
	return cloneOrder(po), nil
}

// ListOrders returns the owner's purchase orders ordered by number.
func (s *Store) ListOrders(ctx context.Context, ownerID int64) ([]payables.PurchaseOrder, error) {
	_ = ctx
	return s.listOrders(ownerID, nil)
}

// ListOrdersByStatus returns the owner's purchase orders in one status.
func (s *Store) ListOrdersByStatus(ctx context.Context, ownerID int64, status payables.PurchaseOrderStatus) ([]payables.PurchaseOrder, error) {
	_ = ctx
	return s.listOrders(ownerID, func(po *payables.PurchaseOrder) bool { return po.Status == status })
}

func (s *Store) listOrders(ownerID int64, keep func(*payables.PurchaseOrder) bool) ([]payables.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payables.PurchaseOrder
	for _, po := range s.orders {
		if po.OwnerID != ownerID {
			continue
		}
		if keep != nil && !keep(po) {
			continue
		}
		out = append(out, *cloneOrder(po))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// FindOrdersByIDs returns the owner's orders among ids; missing ids are skipped.
func (s *Store) FindOrdersByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.PurchaseOrder, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]payables.PurchaseOrder, 0, len(ids))
	for _, id := range ids {
		if po := s.orders[id]; po != nil && po.OwnerID == ownerID {
			out = append(out, *cloneOrder(po))
		}
	}
	return out, nil
}

// UpdateOrder overwrites header fields and substitutes the item set.
func (s *Store) UpdateOrder(ctx context.Context, po *payables.PurchaseOrder) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.orders[po.ID]
	if existing == nil || existing.OwnerID != po.OwnerID {
		return payables.ErrOrderNotFound
	}
	for i := range po.Items {
		if po.Items[i].ID == 0 {
			s.nextItemID++
			po.Items[i].ID = s.nextItemID
		}
		po.Items[i].PurchaseOrderID = po.ID
	}
	po.Number = existing.Number
	po.CreatedAt = existing.CreatedAt
	po.UpdatedAt = time.Now().UTC()
	s.orders[po.ID] = cloneOrder(po)
	return nil
}

// DeleteOrder removes an owner's purchase order and its items.
func (s *Store) DeleteOrder(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	po := s.orders[id]
	if po == nil || po.OwnerID != ownerID {
		return payables.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

// CreateDeclaration stores a new tax declaration and assigns its id.
func (s *Store) CreateDeclaration(ctx context.Context, d *payables.TaxDeclaration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDeclID++
	d.ID = s.nextDeclID
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	stored := *d
	s.declarations[d.ID] = &stored
	return nil
}

// GetDeclaration loads an owner's tax declaration.
func (s *Store) GetDeclaration(ctx context.Context, ownerID, id int64) (*payables.TaxDeclaration, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.declarations[id]
	if d == nil || d.OwnerID != ownerID {
		return nil, payables.ErrDeclarationNotFound
	}
	out := *d
	return &out, nil
}

// ListDeclarations returns the owner's declarations, newest period first.
func (s *Store) ListDeclarations(ctx context.Context, ownerID int64) ([]payables.TaxDeclaration, error) {
	_ = ctx
	return s.listDeclarations(ownerID, nil)
}

// ListDeclarationsByStatus returns the owner's declarations in one status.
func (s *Store) ListDeclarationsByStatus(ctx context.Context, ownerID int64, status payables.TaxDeclarationStatus) ([]payables.TaxDeclaration, error) {
	_ = ctx
	return s.listDeclarations(ownerID, func(d *payables.TaxDeclaration) bool { return d.Status == status })
}

func (s *Store) listDeclarations(ownerID int64, keep func(*payables.TaxDeclaration) bool) ([]payables.TaxDeclaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []payables.TaxDeclaration
	for _, d := range s.declarations {
		if d.OwnerID != ownerID {
			continue
		}
		if keep != nil && !keep(d) {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period > out[j].Period
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindDeclarationsByIDs returns the owner's declarations among ids; missing
// ids are skipped.
func (s *Store) FindDeclarationsByIDs(ctx context.Context, ownerID int64, ids []int64) ([]payables.TaxDeclaration, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]payables.TaxDeclaration, 0, len(ids))
	for _, id := range ids {
		if d := s.declarations[id]; d != nil && d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

// UpdateDeclaration overwrites a declaration's fields.
func (s *Store) UpdateDeclaration(ctx context.Context, d *payables.TaxDeclaration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.declarations[d.ID]
	if existing == nil || existing.OwnerID != d.OwnerID {
		return payables.ErrDeclarationNotFound
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	stored := *d
	s.declarations[d.ID] = &stored
	return nil
}

// DeleteDeclaration removes an owner's declaration.
func (s *Store) DeleteDeclaration(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.declarations[id]
	if d == nil || d.OwnerID != ownerID {
		return payables.ErrDeclarationNotFound
	}
	delete(s.declarations, id)
	return nil
}
