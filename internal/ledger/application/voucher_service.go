package application

import (
	"context"
	"errors"
	"log"
	"time"

	"finbooks/internal/eventing"
	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/observability/metrics"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// EventPublisher emits posting lifecycle events.
type EventPublisher interface {
	PublishVoucherPosted(ctx context.Context, event eventing.VoucherPosted) error
	PublishVoucherUnposted(ctx context.Context, event eventing.VoucherUnposted) error
}

// VoucherInput carries the caller-editable voucher fields.
type VoucherInput struct {
	Date        time.Time
	Description string
	Status      ledger.VoucherStatus
	Entries     []ledger.VoucherEntry
}

// VoucherService handles voucher use cases. Posting is the only path that
// touches account balances; the repository commits the posted flag and the
// balance deltas in one transaction.
type VoucherService struct {
	vouchers  ledger.VoucherRepository
	accounts  ledger.AccountRepository
	publisher EventPublisher
	clock     Clock
	logger    *log.Logger
}

// NewVoucherService constructs the service.
func NewVoucherService(
	vouchers ledger.VoucherRepository,
	accounts ledger.AccountRepository,
	publisher EventPublisher,
	clock Clock,
	logger *log.Logger,
) (*VoucherService, error) {
	if vouchers == nil {
		return nil, errors.New("voucher service: nil voucher repository")
	}
	if accounts == nil {
		return nil, errors.New("voucher service: nil account repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &VoucherService{
		vouchers:  vouchers,
		accounts:  accounts,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}, nil
}

// CreateVoucher validates the entry set and persists an unposted voucher.
// The voucher number comes from a per-owner counter in the repository.
func (s *VoucherService) CreateVoucher(ctx context.Context, ownerID int64, in VoucherInput) (*ledger.Voucher, error) {
	if err := ledger.ValidateEntries(in.Entries); err != nil {
		return nil, err
	}
	if _, err := s.accountTypes(ctx, ownerID, in.Entries); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = ledger.VoucherStatusUnreviewed
	}
	date := in.Date
	if date.IsZero() {
		date = s.clock.Now()
	}

	voucher := &ledger.Voucher{
		Date:        date,
		Description: in.Description,
		Status:      status,
		OwnerID:     ownerID,
		Entries:     in.Entries,
	}
	if err := s.vouchers.Create(ctx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// GetVoucher loads one voucher with entries.
func (s *VoucherService) GetVoucher(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	return s.vouchers.Get(ctx, ownerID, id)
}

// ListVouchers returns the owner's vouchers ordered by number.
func (s *VoucherService) ListVouchers(ctx context.Context, ownerID int64) ([]ledger.Voucher, error) {
	return s.vouchers.List(ctx, ownerID)
}

// UpdateVoucher replaces the editable fields and the entry set. Posted
// vouchers are immutable; unpost first.
func (s *VoucherService) UpdateVoucher(ctx context.Context, ownerID, id int64, in VoucherInput) (*ledger.Voucher, error) {
	voucher, err := s.vouchers.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if voucher.Posted {
		return nil, ledger.ErrPostedVoucherImmutable
	}
	if err := ledger.ValidateEntries(in.Entries); err != nil {
		return nil, err
	}
	if _, err := s.accountTypes(ctx, ownerID, in.Entries); err != nil {
		return nil, err
	}

	if !in.Date.IsZero() {
		voucher.Date = in.Date
	}
	voucher.Description = in.Description
	if in.Status != "" {
		voucher.Status = in.Status
	}
	voucher.Entries = in.Entries
	if err := s.vouchers.Replace(ctx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// DeleteVoucher removes a voucher. A posted voucher has its balance effect
// reversed in the same transaction as the delete.
func (s *VoucherService) DeleteVoucher(ctx context.Context, ownerID, id int64) error {
	voucher, err := s.vouchers.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !voucher.Posted {
		return s.vouchers.Delete(ctx, ownerID, id)
	}

	types, err := s.accountTypes(ctx, ownerID, voucher.Entries)
	if err != nil {
		return err
	}
	deltas, err := ledger.ReversalDeltas(voucher.Entries, types)
	if err != nil {
		return err
	}
	return s.vouchers.DeleteWithReversal(ctx, voucher, ledger.MergeDeltas(deltas))
}

// PostVoucher applies the voucher's balance effect. The posted flag and all
// deltas commit atomically; posting twice is a conflict.
func (s *VoucherService) PostVoucher(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	start := s.clock.Now()
	voucher, err := s.postVoucher(ctx, ownerID, id)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveVoucherPost("post", result, s.clock.Now().Sub(start))
	return voucher, err
}

func (s *VoucherService) postVoucher(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	voucher, err := s.vouchers.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if voucher.Posted {
		return nil, ledger.ErrAlreadyPosted
	}
	if err := ledger.ValidateEntries(voucher.Entries); err != nil {
		return nil, err
	}

	types, err := s.accountTypes(ctx, ownerID, voucher.Entries)
	if err != nil {
		return nil, err
	}
	deltas, err := ledger.PostingDeltas(voucher.Entries, types)
	if err != nil {
		return nil, err
	}

	postedAt := s.clock.Now().UTC()
	if err := s.vouchers.SetPosted(ctx, voucher, true, postedAt, ledger.VoucherStatusReviewed, ledger.MergeDeltas(deltas)); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		debit, _ := ledger.EntryTotals(voucher.Entries)
		event := eventing.VoucherPosted{
			OwnerID:       ownerID,
			VoucherID:     voucher.ID,
			VoucherNumber: voucher.Number,
			DebitTotal:    debit,
			OccurredAt:    postedAt,
		}
		if err := s.publisher.PublishVoucherPosted(ctx, event); err != nil {
			s.logger.Printf("voucher: publish posted event for %s: %v", voucher.Number, err)
		}
	}
	return voucher, nil
}

// UnpostVoucher reverses the voucher's balance effect and clears the posted
// flag atomically. Unposting an unposted voucher is a conflict.
func (s *VoucherService) UnpostVoucher(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	start := s.clock.Now()
	voucher, err := s.unpostVoucher(ctx, ownerID, id)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveVoucherPost("unpost", result, s.clock.Now().Sub(start))
	return voucher, err
}

func (s *VoucherService) unpostVoucher(ctx context.Context, ownerID, id int64) (*ledger.Voucher, error) {
	voucher, err := s.vouchers.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !voucher.Posted {
		return nil, ledger.ErrNotPosted
	}

	types, err := s.accountTypes(ctx, ownerID, voucher.Entries)
	if err != nil {
		return nil, err
	}
	deltas, err := ledger.ReversalDeltas(voucher.Entries, types)
	if err != nil {
		return nil, err
	}

	if err := s.vouchers.SetPosted(ctx, voucher, false, time.Time{}, ledger.VoucherStatusUnreviewed, ledger.MergeDeltas(deltas)); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := eventing.VoucherUnposted{
			OwnerID:       ownerID,
			VoucherID:     voucher.ID,
			VoucherNumber: voucher.Number,
			OccurredAt:    s.clock.Now().UTC(),
		}
		if err := s.publisher.PublishVoucherUnposted(ctx, event); err != nil {
			s.logger.Printf("voucher: publish unposted event for %s: %v", voucher.Number, err)
		}
	}
	return voucher, nil
}

// accountTypes resolves the type of every account the entries reference,
// failing when any account is absent or foreign-owned.
func (s *VoucherService) accountTypes(ctx context.Context, ownerID int64, entries []ledger.VoucherEntry) (map[int64]ledger.AccountType, error) {
	unique := make([]int64, 0, len(entries))
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			unique = append(unique, e.AccountID)
		}
	}
	accounts, err := s.accounts.ListByIDs(ctx, ownerID, unique)
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(unique) {
		return nil, ledger.ErrAccountNotFound
	}
	types := make(map[int64]ledger.AccountType, len(accounts))
	for _, a := range accounts {
		types[a.ID] = a.Type
	}
	return types, nil
}
