package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "parking.booking.events"
)

// Event types carried on TopicBookingEvents.
const (
	BookingRequested = "parking.booking.requested"
	BookingConfirmed = "parking.booking.confirmed"
	BookingRejected  = "parking.booking.rejected"
	BookingCancelled = "parking.booking.cancelled"
	BookingCompleted = "parking.booking.completed"
)

// BookingLifecycleEvent is the payload published for every booking
// state transition. SpotOwnerID lets consumers route owner-facing
// notifications without a spot lookup.
type BookingLifecycleEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	SpotID         uuid.UUID `json:"spot_id"`
	SpotTitle      string    `json:"spot_title"`
	SpotOwnerID    uuid.UUID `json:"spot_owner_id"`
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name"`
	Status         string    `json:"status"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	TotalCostCents int64     `json:"total_cost_cents"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurred_at"`
}
