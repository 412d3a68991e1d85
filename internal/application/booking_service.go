package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
	"github.com/Parastud/ParkEase/internal/pkg/events"
)

// NotificationEmitter is the fire-and-forget hook informed of every
// booking state transition. Implementations must never fail the
// caller's operation; delivery problems are theirs to log.
type NotificationEmitter interface {
	BookingTransitioned(ctx context.Context, eventType string, evt events.BookingLifecycleEvent)
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	SpotID           uuid.UUID `json:"spot_id" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	RequiresApproval bool      `json:"requires_approval"`
	IdempotencyKey   string    `json:"idempotency_key"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID  `json:"id"`
	SpotID         uuid.UUID  `json:"spot_id"`
	SpotTitle      string     `json:"spot_title"`
	UserID         uuid.UUID  `json:"user_id"`
	UserName       string     `json:"user_name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	DurationHours  int        `json:"duration_hours"`
	TotalCostCents int64      `json:"total_cost_cents"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	DisplayStatus  string     `json:"display_status"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BookingService orchestrates the booking lifecycle: every status
// transition and its paired availability-ledger adjustment funnel
// through here.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	spots    spotDomain.SpotRepository
	ledger   spotDomain.AvailabilityLedger
	pricing  bookingDomain.PricingStrategy
	emitter  NotificationEmitter
	logger   *zap.Logger
	clock    func() time.Time
}

// NewBookingService creates a new BookingService. clock supplies "now"
// for guard evaluation and transition timestamps.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	spots spotDomain.SpotRepository,
	ledger spotDomain.AvailabilityLedger,
	pricing bookingDomain.PricingStrategy,
	emitter NotificationEmitter,
	logger *zap.Logger,
	clock func() time.Time,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		spots:    spots,
		ledger:   ledger,
		pricing:  pricing,
		emitter:  emitter,
		logger:   logger,
		clock:    clock,
	}
}

// CreateBooking books one capacity unit of a spot for a time window.
// Whether the booking starts pending or confirmed depends on the
// spot's approval setting; the request flag can only tighten it.
// Creation is idempotent on the client-supplied key: a retried create
// returns the already-created booking instead of holding a second unit.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, userName string, req CreateBookingRequest) (*BookingDTO, error) {
	now := s.clock()

	// Every guard runs before any write.
	if err := bookingDomain.ValidateTimeRange(now, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.bookings.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			result := s.toBookingDTO(existing, now)
			return &result, nil
		}
		if !domain.IsNotFound(err) {
			return nil, err
		}
	}

	sp, err := s.spots.FindByID(ctx, req.SpotID)
	if err != nil {
		return nil, err
	}

	requiresApproval := req.RequiresApproval || sp.RequiresApproval()
	durationHours, totalCents := s.pricing.Quote(sp.PricePerHourCents(), req.StartTime, req.EndTime)

	// Take the capacity hold first; the guarded decrement is what
	// keeps concurrent creates from overselling the last unit.
	newAvailable, err := s.ledger.Hold(ctx, sp.ID())
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		now,
		userID,
		userName,
		sp.ID(),
		sp.Title(),
		req.StartTime,
		req.EndTime,
		durationHours,
		totalCents,
		sp.Currency(),
		requiresApproval,
		req.IdempotencyKey,
	)
	if err != nil {
		s.compensateHold(ctx, sp.ID())
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		s.compensateHold(ctx, sp.ID())
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("spot_id", sp.ID().String()),
		zap.String("status", bk.Status().String()),
		zap.Int("available", newAvailable),
	)

	eventType := events.BookingConfirmed
	if bk.Status() == bookingDomain.StatusPending {
		eventType = events.BookingRequested
	}
	s.emit(ctx, eventType, bk, sp.OwnerID())

	result := s.toBookingDTO(bk, now)
	return &result, nil
}

// CancelBooking cancels a confirmed booking and releases its held
// unit. Only the booking's user may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actingUserID uuid.UUID) (*BookingDTO, error) {
	now := s.clock()

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.UserID() != actingUserID {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	if err := bk.Cancel(now); err != nil {
		return nil, err
	}

	bk.IncrementVersion(now)
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.releaseFor(ctx, bk)
	s.emitWithSpotOwner(ctx, events.BookingCancelled, bk)

	result := s.toBookingDTO(bk, now)
	return &result, nil
}

// ApproveBooking confirms a pending booking. Only the spot's owner
// may approve; the capacity unit is already held, so no ledger change.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, actingOwnerID uuid.UUID) (*BookingDTO, error) {
	now := s.clock()

	bk, sp, err := s.loadForOwnerDecision(ctx, bookingID, actingOwnerID)
	if err != nil {
		return nil, err
	}

	if err := bk.Approve(now); err != nil {
		return nil, err
	}

	bk.IncrementVersion(now)
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.emit(ctx, events.BookingConfirmed, bk, sp.OwnerID())

	result := s.toBookingDTO(bk, now)
	return &result, nil
}

// RejectBooking rejects a pending booking and releases its held unit.
// Only the spot's owner may reject.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, actingOwnerID uuid.UUID) (*BookingDTO, error) {
	now := s.clock()

	bk, sp, err := s.loadForOwnerDecision(ctx, bookingID, actingOwnerID)
	if err != nil {
		return nil, err
	}

	if err := bk.Reject(now); err != nil {
		return nil, err
	}

	bk.IncrementVersion(now)
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.releaseFor(ctx, bk)
	s.emit(ctx, events.BookingRejected, bk, sp.OwnerID())

	result := s.toBookingDTO(bk, now)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the acting user:
// its creator or the owner of its spot.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actingUserID uuid.UUID) (*BookingDTO, error) {
	now := s.clock()

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.UserID() != actingUserID {
		sp, err := s.spots.FindByID(ctx, bk.SpotID())
		if err != nil || sp.OwnerID() != actingUserID {
			return nil, domain.NewForbiddenError("booking is not visible to this user")
		}
	}

	result := s.toBookingDTO(bk, now)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings for a user.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.toPage(bookings, total, page, limit), nil
}

// GetOwnerBookings retrieves paginated bookings across all of an
// owner's spots (the booking-requests view).
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	spots, err := s.spots.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	spotIDs := make([]uuid.UUID, len(spots))
	for i, sp := range spots {
		spotIDs[i] = sp.ID()
	}

	bookings, total, err := s.bookings.FindBySpotIDs(ctx, spotIDs, page, limit)
	if err != nil {
		return nil, err
	}
	return s.toPage(bookings, total, page, limit), nil
}

// --- Helpers ---

// loadForOwnerDecision loads a booking plus its spot and verifies the
// acting principal owns the spot.
func (s *BookingService) loadForOwnerDecision(ctx context.Context, bookingID, actingOwnerID uuid.UUID) (*bookingDomain.Booking, *spotDomain.Spot, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	sp, err := s.spots.FindByID(ctx, bk.SpotID())
	if err != nil {
		return nil, nil, err
	}
	if sp.OwnerID() != actingOwnerID {
		return nil, nil, domain.NewForbiddenError("spot does not belong to this owner")
	}
	return bk, sp, nil
}

// compensateHold undoes a hold whose booking never materialized.
func (s *BookingService) compensateHold(ctx context.Context, spotID uuid.UUID) {
	if _, err := s.ledger.Release(ctx, spotID); err != nil {
		s.logger.Error("failed to release compensating hold",
			zap.String("spot_id", spotID.String()),
			zap.Error(err),
		)
	}
}

// releaseFor releases the capacity unit held by bk after a terminal
// transition. The booking-side CAS already succeeded, so a release
// failure is logged for reconciliation rather than failing the caller.
func (s *BookingService) releaseFor(ctx context.Context, bk *bookingDomain.Booking) {
	if _, err := s.ledger.Release(ctx, bk.SpotID()); err != nil {
		s.logger.Error("failed to release spot after transition",
			zap.String("booking_id", bk.ID().String()),
			zap.String("spot_id", bk.SpotID().String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) emit(ctx context.Context, eventType string, bk *bookingDomain.Booking, spotOwnerID uuid.UUID) {
	s.emitter.BookingTransitioned(ctx, eventType, events.BookingLifecycleEvent{
		BookingID:      bk.ID(),
		SpotID:         bk.SpotID(),
		SpotTitle:      bk.SpotTitle(),
		SpotOwnerID:    spotOwnerID,
		UserID:         bk.UserID(),
		UserName:       bk.UserName(),
		Status:         bk.Status().String(),
		StartTime:      bk.StartTime(),
		EndTime:        bk.EndTime(),
		TotalCostCents: bk.TotalCostCents(),
		Currency:       bk.Currency(),
		OccurredAt:     s.clock(),
	})
}

// emitWithSpotOwner resolves the spot owner before emitting; used on
// paths that have not already loaded the spot. A missing spot does not
// block the event.
func (s *BookingService) emitWithSpotOwner(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	var ownerID uuid.UUID
	if sp, err := s.spots.FindByID(ctx, bk.SpotID()); err == nil {
		ownerID = sp.OwnerID()
	}
	s.emit(ctx, eventType, bk, ownerID)
}

func (s *BookingService) toBookingDTO(bk *bookingDomain.Booking, now time.Time) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		SpotID:         bk.SpotID(),
		SpotTitle:      bk.SpotTitle(),
		UserID:         bk.UserID(),
		UserName:       bk.UserName(),
		StartTime:      bk.StartTime(),
		EndTime:        bk.EndTime(),
		DurationHours:  bk.DurationHours(),
		TotalCostCents: bk.TotalCostCents(),
		Currency:       bk.Currency(),
		Status:         bk.Status().String(),
		DisplayStatus:  bk.DisplayStatusAt(now),
		CancelledAt:    bk.CancelledAt(),
		CompletedAt:    bk.CompletedAt(),
		RejectedAt:     bk.RejectedAt(),
		CreatedAt:      bk.CreatedAt(),
	}
}

func (s *BookingService) toPage(bookings []*bookingDomain.Booking, total int64, page, limit int) *domain.PaginatedResult[BookingDTO] {
	now := s.clock()
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = s.toBookingDTO(bk, now)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result
}
