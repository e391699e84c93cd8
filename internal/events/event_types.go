package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventPaymentVerified    EventType = "payment.verified"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType EventType, orderID, userID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// OrderPlacedPayload payload.
type OrderPlacedPayload struct {
	Items         []domain.OrderItem   `json:"items"`
	Amount        float64              `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	NewStatus domain.OrderStatus `json:"new_status"`
}

// PaymentVerifiedPayload payload.
type PaymentVerifiedPayload struct {
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
}
