// Package event publishes commerce lifecycle events for downstream
// consumers (notifications, analytics, warehouse tooling). Publishing
// is best-effort: the money path never fails because the broker is
// down.
package event

import (
	"context"
	"time"
)

// Event types emitted by the engine.
const (
	TypeOrderPlaced          = "order.placed"
	TypeOrderPaid            = "order.paid"
	TypeOrderDelivered       = "order.delivered"
	TypeOrderDeleted         = "order.deleted"
	TypeReturnRequested      = "return.requested"
	TypeReturnStatusChanged  = "return.status_changed"
	TypeReturnRefundComplete = "return.refund_processed"
)

// Envelope wraps every published event with its type and timestamp.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Publisher emits lifecycle events keyed by aggregate ID.
type Publisher interface {
	Publish(ctx context.Context, key string, eventType string, payload any) error
	Close() error
}
