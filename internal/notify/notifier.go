// Package notify emits lifecycle notification events to an external
// email/SMS dispatcher. Delivery is fire-and-forget: the workflow engine
// publishes after a mutation commits, and a delivery failure never rolls the
// mutation back.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types.
const (
	EventOrderStatusChanged   = "order.status_changed"
	EventOrderContacted       = "order.contacted"
	EventOrderPaymentUpdated  = "order.payment_updated"
	EventArtisanStatusChanged = "artisan.status_changed"
	EventArtisanVerified      = "artisan.verified"
)

// Event is the envelope published for every lifecycle notification. All
// events for one entity carry the entity id as the partition key so
// consumers see them in order.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      string          `json:"actor"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent builds an Event with a fresh id and the payload marshalled to
// JSON. A payload that fails to marshal is replaced by null rather than
// dropping the event.
func NewEvent(eventType, actor, entityID string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage("null")
	}
	return Event{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		EntityID:   entityID,
		Payload:    raw,
	}
}

// StatusChangedPayload describes a status transition on either entity type.
type StatusChangedPayload struct {
	Entity     string `json:"entity"` // order | artisan
	OrderNum   string `json:"order_number,omitempty"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Reason     string `json:"reason,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// ContactedPayload describes a customer-outreach event.
type ContactedPayload struct {
	OrderNum string `json:"order_number"`
	Method   string `json:"method"`
	Notes    string `json:"notes,omitempty"`
}

// PaymentUpdatedPayload describes a payment sub-record change.
type PaymentUpdatedPayload struct {
	OrderNum   string `json:"order_number"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// VerifiedPayload describes a verification mark on an artisan sub-record.
type VerifiedPayload struct {
	Kind  string `json:"kind"` // id_proof | bank_details
	Notes string `json:"notes,omitempty"`
}

// Notifier publishes lifecycle events. Publish must not block the caller on
// delivery; implementations either buffer or log synchronously.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// LogNotifier writes events to the log instead of an external bus. Used in
// development and as a fallback when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Publish logs the event.
func (n *LogNotifier) Publish(_ context.Context, event Event) error {
	n.logger.Info("notification",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("entity_id", event.EntityID),
		zap.String("actor", event.Actor),
	)
	return nil
}
