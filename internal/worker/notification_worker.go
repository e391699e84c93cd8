package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/events"
	"github.com/spec-kit/grocery-storefront/internal/messaging"
	"github.com/spec-kit/grocery-storefront/internal/service"
)

// NotificationWorker owns the event forwarding pipeline.
type NotificationWorker struct {
	producer *messaging.Producer
	logger   *zap.Logger
}

// StartNotificationWorker registers notification handlers on dispatcher and,
// when brokers are configured, starts the Kafka producer behind them.
func StartNotificationWorker(cfg config.KafkaConfig, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationWorker {
	w := &NotificationWorker{logger: logger}

	var publisher service.EventPublisher
	if cfg.Enabled() {
		w.producer = messaging.NewProducer(cfg, logger)
		w.producer.Start()
		publisher = w.producer
		logger.Info("publishing order events", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.OrderTopic))
	} else {
		logger.Info("KAFKA_BROKERS not set; order events are logged only")
	}

	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()
	return w
}

// Stop drains pending events.
func (w *NotificationWorker) Stop(ctx context.Context) {
	if w == nil || w.producer == nil {
		return
	}
	if err := w.producer.Close(ctx); err != nil {
		w.logger.Warn("event producer did not drain", zap.Error(err))
	}
}
