package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Parastud/ParkEase/internal/domain/notification"
	"github.com/Parastud/ParkEase/internal/pkg/events"
	"github.com/Parastud/ParkEase/internal/pkg/kafka"
)

// BookingEventConsumer listens to booking lifecycle events and writes
// notification feed entries for the driver and the spot owner.
type BookingEventConsumer struct {
	consumer      *kafka.Consumer
	notifications notification.Repository
	logger        *zap.Logger
	clock         func() time.Time
}

// NewBookingEventConsumer creates a new BookingEventConsumer.
func NewBookingEventConsumer(
	brokers []string,
	groupID string,
	notifications notification.Repository,
	logger *zap.Logger,
	clock func() time.Time,
) *BookingEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicBookingEvents, logger)
	return &BookingEventConsumer{
		consumer:      consumer,
		notifications: notifications,
		logger:        logger,
		clock:         clock,
	}
}

// Start begins consuming booking events. This blocks until the context
// is cancelled.
func (c *BookingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *BookingEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *BookingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from booking topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	var evt events.BookingLifecycleEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse BookingLifecycleEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	for _, n := range c.buildNotifications(cloudEvent.Type, evt) {
		if err := c.notifications.Save(ctx, n); err != nil {
			c.logger.Error("failed to save notification",
				zap.String("booking_id", evt.BookingID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	return nil
}

// buildNotifications decides who hears about the transition. Drivers
// are told about owner decisions and completion; owners are told about
// requests, new confirmed bookings and cancellations.
func (c *BookingEventConsumer) buildNotifications(eventType string, evt events.BookingLifecycleEvent) []*notification.Notification {
	now := c.clock()
	window := fmt.Sprintf("%s to %s",
		evt.StartTime.Format("Jan 2 15:04"),
		evt.EndTime.Format("15:04"),
	)

	switch eventType {
	case events.BookingRequested:
		msg := fmt.Sprintf("%s requested a booking at %s (%s)", evt.UserName, evt.SpotTitle, window)
		return []*notification.Notification{
			notification.New(now, evt.SpotOwnerID, notification.TypeBookingRequested, msg, &evt.BookingID),
		}

	case events.BookingConfirmed:
		return []*notification.Notification{
			notification.New(now, evt.UserID, notification.TypeBookingConfirmed,
				fmt.Sprintf("Your booking at %s is confirmed (%s)", evt.SpotTitle, window), &evt.BookingID),
			notification.New(now, evt.SpotOwnerID, notification.TypeBookingConfirmed,
				fmt.Sprintf("%s booked %s (%s)", evt.UserName, evt.SpotTitle, window), &evt.BookingID),
		}

	case events.BookingRejected:
		msg := fmt.Sprintf("Your booking request at %s was declined", evt.SpotTitle)
		return []*notification.Notification{
			notification.New(now, evt.UserID, notification.TypeBookingRejected, msg, &evt.BookingID),
		}

	case events.BookingCancelled:
		msg := fmt.Sprintf("%s cancelled their booking at %s (%s)", evt.UserName, evt.SpotTitle, window)
		return []*notification.Notification{
			notification.New(now, evt.SpotOwnerID, notification.TypeBookingCancelled, msg, &evt.BookingID),
		}

	case events.BookingCompleted:
		msg := fmt.Sprintf("Your booking at %s has ended", evt.SpotTitle)
		return []*notification.Notification{
			notification.New(now, evt.UserID, notification.TypeBookingCompleted, msg, &evt.BookingID),
		}

	default:
		c.logger.Debug("ignoring unhandled booking event type",
			zap.String("type", eventType),
		)
		return nil
	}
}
