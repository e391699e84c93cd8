package service

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/events"
)

// EventPublisher forwards encoded events to a broker.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// NotificationService logs order events and forwards them to the broker.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil when
// no broker is configured.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderPlaced, n.handle)
	n.dispatcher.Subscribe(events.EventPaymentVerified, n.handle)
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handle)
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID))

	if n.publisher == nil {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Keyed by order so every event for one order stays on one partition.
	return n.publisher.Publish([]byte(event.OrderID), value,
		kafka.Header{Key: "event_type", Value: []byte(event.Type)},
		kafka.Header{Key: "event_id", Value: []byte(event.ID)},
	)
}
