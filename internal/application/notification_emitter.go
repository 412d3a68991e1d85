package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/Parastud/ParkEase/internal/pkg/events"
	"github.com/Parastud/ParkEase/internal/pkg/kafka"
)

// KafkaNotificationEmitter publishes booking transitions as
// CloudEvents on the booking events topic. It is fire-and-forget:
// publish failures are logged and never surfaced to the caller.
type KafkaNotificationEmitter struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewKafkaNotificationEmitter creates a KafkaNotificationEmitter.
func NewKafkaNotificationEmitter(producer *kafka.Producer, logger *zap.Logger) *KafkaNotificationEmitter {
	return &KafkaNotificationEmitter{producer: producer, logger: logger}
}

// BookingTransitioned publishes the transition keyed by booking ID so
// one booking's events stay ordered on a single partition.
func (e *KafkaNotificationEmitter) BookingTransitioned(ctx context.Context, eventType string, evt events.BookingLifecycleEvent) {
	cloudEvent, err := kafka.NewCloudEvent("service-parking", eventType, evt)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := e.producer.Publish(ctx, events.TopicBookingEvents, evt.BookingID.String(), cloudEvent); err != nil {
		e.logger.Error("failed to publish booking event",
			zap.String("event_type", eventType),
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
	}
}
