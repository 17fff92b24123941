package settlement

import "context"

// Repository persists payments and commits settlement batches.
type Repository interface {
	// ExecuteBatch commits the whole batch in one transaction: payment
	// inserts, voucher inserts (numbers assigned from the per-owner
	// counter), balance deltas, source transitions and the idempotency
	// record. Any failure leaves no trace of the batch.
	ExecuteBatch(ctx context.Context, batch *Batch) error
	// SeenIdempotencyKey reports whether the owner already executed a batch
	// with this key.
	SeenIdempotencyKey(ctx context.Context, ownerID int64, key string) (bool, error)
	GetPayment(ctx context.Context, ownerID, id int64) (*Payment, error)
	ListPayments(ctx context.Context, ownerID int64) ([]Payment, error)
}
