package eventing

import (
	"context"
	"sync"
)

// Event type names carried in envelopes.
const (
	TypeVoucherPosted   = "voucher.posted"
	TypeVoucherUnposted = "voucher.unposted"
	TypePaymentExecuted = "payment.executed"
)

// Sink receives every published envelope, typically a broker publisher.
// Sink failures are reported to the caller; in-process handlers have
// already run by then.
type Sink interface {
	Publish(ctx context.Context, env Envelope) error
}

// Bus is a lightweight in-process event bus.
type Bus struct {
	mu sync.RWMutex

	postedHandlers   []func(context.Context, VoucherPosted) error
	unpostedHandlers []func(context.Context, VoucherUnposted) error
	paymentHandlers  []func(context.Context, PaymentExecuted) error
	sinks            []Sink
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// AttachSink forwards every subsequent publish to sink.
func (b *Bus) AttachSink(sink Sink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// SubscribeVoucherPosted registers a handler for posted vouchers.
func (b *Bus) SubscribeVoucherPosted(handler func(context.Context, VoucherPosted) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.postedHandlers = append(b.postedHandlers, handler)
}

// PublishVoucherPosted delivers the event to handlers, then to sinks.
func (b *Bus) PublishVoucherPosted(ctx context.Context, event VoucherPosted) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, VoucherPosted) error(nil), b.postedHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return b.forward(ctx, TypeVoucherPosted, event.OwnerID, event)
}

// SubscribeVoucherUnposted registers a handler for reversed postings.
func (b *Bus) SubscribeVoucherUnposted(handler func(context.Context, VoucherUnposted) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unpostedHandlers = append(b.unpostedHandlers, handler)
}

// PublishVoucherUnposted delivers the event to handlers, then to sinks.
func (b *Bus) PublishVoucherUnposted(ctx context.Context, event VoucherUnposted) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, VoucherUnposted) error(nil), b.unpostedHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return b.forward(ctx, TypeVoucherUnposted, event.OwnerID, event)
}

// SubscribePaymentExecuted registers a handler for settled batches.
func (b *Bus) SubscribePaymentExecuted(handler func(context.Context, PaymentExecuted) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paymentHandlers = append(b.paymentHandlers, handler)
}

// PublishPaymentExecuted delivers the event to handlers, then to sinks.
func (b *Bus) PublishPaymentExecuted(ctx context.Context, event PaymentExecuted) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, PaymentExecuted) error(nil), b.paymentHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return b.forward(ctx, TypePaymentExecuted, event.OwnerID, event)
}

func (b *Bus) forward(ctx context.Context, eventType string, ownerID int64, event any) error {
	b.mu.RLock()
	sinks := append([]Sink(nil), b.sinks...)
	b.mu.RUnlock()
	if len(sinks) == 0 {
		return nil
	}

	env, err := newEnvelope(eventType, ownerID, occurredAt(event), event)
	if err != nil {
		return err
	}
	for _, sink := range sinks {
		if err := sink.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
