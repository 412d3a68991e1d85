package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIdempotencyKey retrieves the booking created under a
	// client idempotency key, or a not-found error.
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Booking, error)

	// FindByUserID retrieves bookings belonging to a user with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindBySpotIDs retrieves bookings referencing any of the given
	// spots with pagination (owner's booking-request view).
	FindBySpotIDs(ctx context.Context, spotIDs []uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByStatus retrieves bookings in the given status with pagination.
	FindByStatus(ctx context.Context, status BookingStatus, page, limit int) ([]*Booking, int64, error)

	// FindExpired retrieves bookings in a capacity-holding status whose
	// end time is at or before now.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	// CountHoldingBySpotID counts capacity-holding bookings for a spot.
	CountHoldingBySpotID(ctx context.Context, spotID uuid.UUID) (int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic
	// locking; a lost race surfaces as a conflict error.
	Update(ctx context.Context, b *Booking) error
}
