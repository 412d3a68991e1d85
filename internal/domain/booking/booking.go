package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// PastStartGrace is how far in the past a booking's start may lie at
// creation time. "Book now" flows submit start = now, which may already
// be seconds old by the time it reaches the service.
const PastStartGrace = 5 * time.Minute

// Booking is the aggregate root for a parking reservation. Each
// non-terminal booking holds exactly one unit of its spot's capacity;
// duration and cost are derived once at creation and frozen.
type Booking struct {
	id             uuid.UUID
	spotID         uuid.UUID
	spotTitle      string
	userID         uuid.UUID
	userName       string
	startTime      time.Time
	endTime        time.Time
	durationHours  int
	totalCostCents int64
	currency       string
	status         BookingStatus
	idempotencyKey string

	cancelledAt *time.Time
	completedAt *time.Time
	rejectedAt  *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate. It starts pending when
// owner approval is required, confirmed otherwise; either way the
// caller must have taken a capacity hold on the spot first.
func NewBooking(
	now time.Time,
	userID uuid.UUID,
	userName string,
	spotID uuid.UUID,
	spotTitle string,
	startTime time.Time,
	endTime time.Time,
	durationHours int,
	totalCostCents int64,
	currency string,
	requiresApproval bool,
	idempotencyKey string,
) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if spotID == uuid.Nil {
		return nil, domain.NewValidationError("spot ID is required")
	}
	if err := ValidateTimeRange(now, startTime, endTime); err != nil {
		return nil, err
	}
	if durationHours < 1 {
		return nil, domain.NewValidationError("duration must be at least one hour")
	}
	if totalCostCents < 0 {
		return nil, domain.NewValidationError("total cost cannot be negative")
	}

	status := StatusConfirmed
	if requiresApproval {
		status = StatusPending
	}

	return &Booking{
		id:             uuid.New(),
		spotID:         spotID,
		spotTitle:      spotTitle,
		userID:         userID,
		userName:       userName,
		startTime:      startTime,
		endTime:        endTime,
		durationHours:  durationHours,
		totalCostCents: totalCostCents,
		currency:       currency,
		status:         status,
		idempotencyKey: idempotencyKey,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ValidateTimeRange checks a booking window: end strictly after start,
// and start no older than the grace window.
func ValidateTimeRange(now, start, end time.Time) error {
	if !end.After(start) {
		return domain.NewValidationError("end time must be after start time")
	}
	if start.Before(now.Add(-PastStartGrace)) {
		return domain.NewValidationError("start time is in the past")
	}
	return nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	spotID uuid.UUID,
	spotTitle string,
	userID uuid.UUID,
	userName string,
	startTime time.Time,
	endTime time.Time,
	durationHours int,
	totalCostCents int64,
	currency string,
	status BookingStatus,
	idempotencyKey string,
	cancelledAt *time.Time,
	completedAt *time.Time,
	rejectedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		spotID:         spotID,
		spotTitle:      spotTitle,
		userID:         userID,
		userName:       userName,
		startTime:      startTime,
		endTime:        endTime,
		durationHours:  durationHours,
		totalCostCents: totalCostCents,
		currency:       currency,
		status:         status,
		idempotencyKey: idempotencyKey,
		cancelledAt:    cancelledAt,
		completedAt:    completedAt,
		rejectedAt:     rejectedAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// SpotID returns the referenced spot's ID.
func (b *Booking) SpotID() uuid.UUID { return b.spotID }

// SpotTitle returns the denormalized spot title for display.
func (b *Booking) SpotTitle() string { return b.spotTitle }

// UserID returns the booking user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// UserName returns the booking user's display name.
func (b *Booking) UserName() string { return b.userName }

// StartTime returns the booking window start.
func (b *Booking) StartTime() time.Time { return b.startTime }

// EndTime returns the booking window end.
func (b *Booking) EndTime() time.Time { return b.endTime }

// DurationHours returns the billable duration frozen at creation.
func (b *Booking) DurationHours() int { return b.durationHours }

// TotalCostCents returns the total cost frozen at creation.
func (b *Booking) TotalCostCents() int64 { return b.totalCostCents }

// Currency returns the cost currency code.
func (b *Booking) Currency() string { return b.currency }

// Status returns the current stored status.
func (b *Booking) Status() BookingStatus { return b.status }

// IdempotencyKey returns the client-supplied creation key, if any.
func (b *Booking) IdempotencyKey() string { return b.idempotencyKey }

// CancelledAt returns the cancellation timestamp.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns the completion timestamp.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// RejectedAt returns the rejection timestamp.
func (b *Booking) RejectedAt() *time.Time { return b.rejectedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Derived state ---

// IsActiveAt reports whether the booking is confirmed and now falls
// inside [start, end]. This is the derived "active" label.
func (b *Booking) IsActiveAt(now time.Time) bool {
	return b.status == StatusConfirmed && !now.Before(b.startTime) && !now.After(b.endTime)
}

// DisplayStatusAt returns the status label shown to users, widening
// confirmed to "active" inside the booking window.
func (b *Booking) DisplayStatusAt(now time.Time) string {
	if b.IsActiveAt(now) {
		return "active"
	}
	return string(b.status)
}

// IsExpiredAt reports whether the booking still holds capacity past
// its end time and is due to be swept.
func (b *Booking) IsExpiredAt(now time.Time) bool {
	return b.status.HoldsCapacity() && !b.endTime.After(now)
}

// --- Behavior ---

// Approve transitions the booking from pending to confirmed.
func (b *Booking) Approve(now time.Time) error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = now
	return nil
}

// Reject transitions the booking from pending to rejected. The caller
// releases the held capacity unit.
func (b *Booking) Reject(now time.Time) error {
	if !b.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(b.status), string(StatusRejected))
	}
	b.status = StatusRejected
	b.rejectedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking from confirmed to cancelled. The
// caller releases the held capacity unit.
func (b *Booking) Cancel(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from confirmed to completed. The
// caller releases the held capacity unit.
func (b *Booking) Complete(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion(now time.Time) {
	b.version++
	b.updatedAt = now
}
