package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies what a notification is about.
type Type string

const (
	TypeBookingRequested Type = "booking_requested"
	TypeBookingConfirmed Type = "booking_confirmed"
	TypeBookingRejected  Type = "booking_rejected"
	TypeBookingCancelled Type = "booking_cancelled"
	TypeBookingCompleted Type = "booking_completed"
)

// Notification is an informational message for a user or owner. It is
// peripheral to the booking core: losing one never affects
// availability correctness.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Type        Type       `json:"type"`
	Message     string     `json:"message"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	Read        bool       `json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
}

// New creates a Notification for the given recipient.
func New(now time.Time, recipientID uuid.UUID, t Type, message string, bookingID *uuid.UUID) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        t,
		Message:     message,
		BookingID:   bookingID,
		CreatedAt:   now,
	}
}
