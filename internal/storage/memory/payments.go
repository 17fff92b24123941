package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	ledger "finbooks/internal/ledger/domain"
	payables "finbooks/internal/payables/domain"
	settlement "finbooks/internal/settlement/domain"
)

// ExecuteBatch commits the whole settlement batch under one lock: vouchers,
// payments, balance deltas, source transitions and the idempotency record.
// Everything is validated before the first mutation so a failure leaves the
// store untouched.
func (s *Store) ExecuteBatch(ctx context.Context, batch *settlement.Batch) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	key := idemKey{ownerID: batch.OwnerID, key: batch.IdempotencyKey}
	if s.seenKeys[key] {
		return settlement.ErrDuplicateExecution
	}
	for _, d := range batch.Deltas {
		if s.accounts[d.AccountID] == nil {
			return ledger.ErrAccountNotFound
		}
		// The orchestrator's funds check ran against an earlier read; the
		// bank delta is re-applied to the current balance under this lock.
		if d.AccountID == batch.BankAccountID && s.accounts[d.AccountID].Balance.Add(d.Delta).IsNegative() {
			return settlement.ErrInsufficientFunds
		}
	}
	for _, item := range batch.Items {
		if err := s.checkTransitionLocked(batch.OwnerID, item.Transition); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for i := range batch.Items {
		item := &batch.Items[i]
		s.createVoucherLocked(item.Voucher)
		item.Payment.VoucherID = item.Voucher.ID

		s.nextPaymentID++
		item.Payment.ID = s.nextPaymentID
		item.Payment.CreatedAt = now
		stored := item.Payment
		s.payments[stored.ID] = &stored

		s.applyTransitionLocked(item.Transition, now)
	}
	if err := s.applyDeltasLocked(batch.Deltas); err != nil {
		return err
	}
	s.seenKeys[key] = true
	return nil
}

// checkTransitionLocked requires the source to still hold the expected prior
// status, so a source another batch settled between validation and commit
// fails this batch instead of paying twice.
func (s *Store) checkTransitionLocked(ownerID int64, t settlement.SourceTransition) error {
	var status string
	switch t.Kind {
	case settlement.SourceBill:
		b := s.bills[t.ID]
		if b == nil || b.OwnerID != ownerID {
			return payables.ErrBillNotFound
		}
		status = string(b.Status)
	case settlement.SourceTax:
		d := s.declarations[t.ID]
		if d == nil || d.OwnerID != ownerID {
			return payables.ErrDeclarationNotFound
		}
		status = string(d.Status)
	case settlement.SourcePurchaseOrder:
		po := s.orders[t.ID]
		if po == nil || po.OwnerID != ownerID {
			return payables.ErrOrderNotFound
		}
		status = string(po.Status)
	}
	if status != t.PrevStatus {
		return fmt.Errorf("%w: %s %d left %s state", settlement.ErrSourceNotPayable, t.Kind, t.ID, t.PrevStatus)
	}
	return nil
}

func (s *Store) applyTransitionLocked(t settlement.SourceTransition, now time.Time) {
	switch t.Kind {
	case settlement.SourceBill:
		b := s.bills[t.ID]
		b.Status = payables.BillStatus(t.NewStatus)
		b.UpdatedAt = now
	case settlement.SourceTax:
		d := s.declarations[t.ID]
		d.Status = payables.TaxDeclarationStatus(t.NewStatus)
		d.UpdatedAt = now
	case settlement.SourcePurchaseOrder:
		po := s.orders[t.ID]
		po.Status = payables.PurchaseOrderStatus(t.NewStatus)
		po.UpdatedAt = now
	}
}

// SeenIdempotencyKey reports whether the owner already executed a batch
// with this key.
func (s *Store) SeenIdempotencyKey(ctx context.Context, ownerID int64, key string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seenKeys[idemKey{ownerID: ownerID, key: key}], nil
}

// GetPayment loads an owner's payment.
func (s *Store) GetPayment(ctx context.Context, ownerID, id int64) (*settlement.Payment, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.payments[id]
	if p == nil || p.OwnerID != ownerID {
		return nil, settlement.ErrPaymentNotFound
	}
	out := *p
	return &out, nil
}

// ListPayments returns the owner's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, ownerID int64) ([]settlement.Payment, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []settlement.Payment
	for _, p := range s.payments {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
