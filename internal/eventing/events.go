package eventing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherPosted is emitted when a voucher's balances are committed.
type VoucherPosted struct {
	OwnerID       int64           `json:"owner_id"`
	VoucherID     int64           `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	DebitTotal    decimal.Decimal `json:"debit_total"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// VoucherUnposted is emitted when a posting is reversed.
type VoucherUnposted struct {
	OwnerID       int64     `json:"owner_id"`
	VoucherID     int64     `json:"voucher_id"`
	VoucherNumber string    `json:"voucher_number"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentExecuted is emitted once per committed settlement batch.
type PaymentExecuted struct {
	OwnerID       int64           `json:"owner_id"`
	ReceiptNumber string          `json:"receipt_number"`
	PaymentIDs    []int64         `json:"payment_ids"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Envelope wraps an event payload with delivery metadata for sinks.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	OwnerID    int64           `json:"owner_id"`
	Payload    json.RawMessage `json:"payload"`
}

func occurredAt(event any) time.Time {
	switch e := event.(type) {
	case VoucherPosted:
		return e.OccurredAt
	case VoucherUnposted:
		return e.OccurredAt
	case PaymentExecuted:
		return e.OccurredAt
	}
	return time.Time{}
}

func newEnvelope(eventType string, ownerID int64, occurredAt time.Time, event any) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: occurredAt.UTC(),
		OwnerID:    ownerID,
		Payload:    payload,
	}, nil
}
