package memory

import (
	"context"
	"sort"
	"time"

	ledger "finbooks/internal/ledger/domain"
)

// Create stores a voucher with its entries and assigns the voucher number
// from the per-owner counter under the same lock as the insert.
func (r voucherRepo) Create(ctx context.Context, voucher *ledger.Voucher) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createVoucherLocked(voucher)
	return nil
}

func (s *Store) createVoucherLocked(voucher *ledger.Voucher) {
	s.nextVoucherID++
	voucher.ID = s.nextVoucherID
	s.voucherSeq[voucher.OwnerID]++
	voucher.Number = ledger.FormatVoucherNumber(voucher.Date, s.voucherSeq[voucher.OwnerID])

	now := time.Now().UTC()
	voucher.CreatedAt = now
	voucher.UpdatedAt = now
	for i := range voucher.Entries {
		s.nextEntryID++
		voucher.Entries[i].ID = s.nextEntryID
		voucher.Entries[i].VoucherID = voucher.ID
	}
	s.vouchers[voucher.ID] = cloneVoucher(voucher)
}

// Get loads an owner's voucher with entries.
func (r voucherRepo) Get(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	v := r.vouchers[id]
	if v == nil || v.OwnerID != ownerID {
		return nil, ledger.ErrVoucherNotFound
	}
	return cloneVoucher(v), nil
}

// GetEntry loads a single voucher entry scoped by owner.
func (r voucherRepo) GetEntry(ctx context.Context, ownerID, entryID int64) (*ledger.VoucherEntry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.vouchers {
		if v.OwnerID != ownerID {
			continue
		}
		for _, e := range v.Entries {
			if e.ID == entryID {
				entry := e
				return &entry, nil
			}
		}
	}
	return nil, ledger.ErrEntryNotFound
}

// List returns the owner's vouchers ordered by number.
func (r voucherRepo) List(ctx context.Context, ownerID int64) ([]ledger.Voucher, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Voucher
	for _, v := range r.vouchers {
		if v.OwnerID == ownerID {
			out = append(out, *cloneVoucher(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// Replace overwrites header fields and substitutes the entry set. The
// voucher number and creation time are kept from the stored row.
func (r voucherRepo) Replace(ctx context.Context, voucher *ledger.Voucher) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.vouchers[voucher.ID]
	if existing == nil || existing.OwnerID != voucher.OwnerID {
		return ledger.ErrVoucherNotFound
	}
	for i := range voucher.Entries {
		if voucher.Entries[i].ID == 0 {
			r.nextEntryID++
			voucher.Entries[i].ID = r.nextEntryID
		}
		voucher.Entries[i].VoucherID = voucher.ID
	}
	voucher.Number = existing.Number
	voucher.CreatedAt = existing.CreatedAt
	voucher.UpdatedAt = time.Now().UTC()
	r.vouchers[voucher.ID] = cloneVoucher(voucher)
	return nil
}

// Delete removes a non-posted voucher and its entries.
func (r voucherRepo) Delete(ctx context.Context, ownerID, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.vouchers[id]
	if v == nil || v.OwnerID != ownerID {
		return ledger.ErrVoucherNotFound
	}
	delete(r.vouchers, id)
	return nil
}

// DeleteWithReversal removes a posted voucher and applies the reversal
// deltas under the same lock. A voucher a concurrent unpost already reversed
// is rejected, not reversed again.
func (r voucherRepo) DeleteWithReversal(ctx context.Context, voucher *ledger.Voucher, deltas []ledger.AccountDelta) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.vouchers[voucher.ID]
	if v == nil || v.OwnerID != voucher.OwnerID {
		return ledger.ErrVoucherNotFound
	}
	if !v.Posted {
		return ledger.ErrNotPosted
	}
	if err := r.applyDeltasLocked(deltas); err != nil {
		return err
	}
	delete(r.vouchers, voucher.ID)
	return nil
}

// SetPosted flips the posted flag and applies balance deltas atomically.
// The stored posted state is re-checked under the write lock, so two racing
// posts (or unposts) apply the deltas exactly once.
func (r voucherRepo) SetPosted(ctx context.Context, voucher *ledger.Voucher, posted bool, postedAt time.Time, status ledger.VoucherStatus, deltas []ledger.AccountDelta) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.vouchers[voucher.ID]
	if v == nil || v.OwnerID != voucher.OwnerID {
		return ledger.ErrVoucherNotFound
	}
	if v.Posted == posted {
		if posted {
			return ledger.ErrAlreadyPosted
		}
		return ledger.ErrNotPosted
	}
	if err := r.applyDeltasLocked(deltas); err != nil {
		return err
	}
	v.Posted = posted
	v.PostedAt = postedAt
	v.Status = status
	v.UpdatedAt = time.Now().UTC()

	voucher.Posted = posted
	voucher.PostedAt = postedAt
	voucher.Status = status
	voucher.UpdatedAt = v.UpdatedAt
	return nil
}
