package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	ownerDomain "github.com/Parastud/ParkEase/internal/domain/owner"
	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
	"github.com/Parastud/ParkEase/internal/pkg/events"
)

// fakeBookingRepo is an in-memory BookingRepository. It stores value
// copies and enforces the same version CAS as the real implementation,
// so races between transitions behave like they do against Postgres.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]bookingDomain.Booking
	saveErr  error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return &b, nil
}

func (r *fakeBookingRepo) FindByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.UserID() == userID && b.IdempotencyKey() == key {
			bc := b
			return &bc, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", key)
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.UserID() == userID {
			bc := b
			out = append(out, &bc)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindBySpotIDs(_ context.Context, spotIDs []uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[uuid.UUID]bool, len(spotIDs))
	for _, id := range spotIDs {
		ids[id] = true
	}
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if ids[b.SpotID()] {
			bc := b
			out = append(out, &bc)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByStatus(_ context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.Status() == status {
			bc := b
			out = append(out, &bc)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindExpired(_ context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.IsExpiredAt(now) {
			bc := b
			out = append(out, &bc)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountHoldingBySpotID(_ context.Context, spotID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, b := range r.bookings {
		if b.SpotID() == spotID && b.Status().HoldsCapacity() {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = *b
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	if stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = *b
	return nil
}

// fakeSpotStore is an in-memory SpotRepository and AvailabilityLedger.
// Availability lives in its own map, mirroring the real split where
// only the ledger touches the available column.
type fakeSpotStore struct {
	mu        sync.Mutex
	spots     map[uuid.UUID]spotDomain.Spot
	available map[uuid.UUID]int
}

func newFakeSpotStore() *fakeSpotStore {
	return &fakeSpotStore{
		spots:     make(map[uuid.UUID]spotDomain.Spot),
		available: make(map[uuid.UUID]int),
	}
}

func (r *fakeSpotStore) add(sp *spotDomain.Spot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spots[sp.ID()] = *sp
	r.available[sp.ID()] = sp.AvailableSpots()
}

func (r *fakeSpotStore) withAvailability(sp spotDomain.Spot) *spotDomain.Spot {
	return spotDomain.ReconstructSpot(
		sp.ID(), sp.OwnerID(), sp.Title(), sp.Description(), sp.Address(),
		sp.Coordinate(), sp.PricePerHourCents(), sp.Currency(),
		sp.TotalSpots(), r.available[sp.ID()], sp.RequiresApproval(),
		sp.Features(), sp.ImageURLs(), sp.Version(), sp.CreatedAt(), sp.UpdatedAt(),
	)
}

func (r *fakeSpotStore) FindByID(_ context.Context, id uuid.UUID) (*spotDomain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.spots[id]
	if !ok {
		return nil, domain.NewNotFoundError("Spot", id.String())
	}
	return r.withAvailability(sp), nil
}

func (r *fakeSpotStore) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*spotDomain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*spotDomain.Spot
	for _, sp := range r.spots {
		if sp.OwnerID() == ownerID {
			out = append(out, r.withAvailability(sp))
		}
	}
	return out, nil
}

func (r *fakeSpotStore) ListAll(_ context.Context, page, limit int) ([]*spotDomain.Spot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*spotDomain.Spot
	for _, sp := range r.spots {
		out = append(out, r.withAvailability(sp))
	}
	return out, int64(len(out)), nil
}

func (r *fakeSpotStore) Save(_ context.Context, sp *spotDomain.Spot) error {
	r.add(sp)
	return nil
}

func (r *fakeSpotStore) Update(_ context.Context, sp *spotDomain.Spot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.spots[sp.ID()]
	if !ok {
		return domain.NewNotFoundError("Spot", sp.ID().String())
	}
	// Availability only shifts by the capacity delta, clamped like the
	// guarded SQL update, so holds taken since the caller's read stay
	// counted.
	avail := r.available[sp.ID()] + (sp.TotalSpots() - stored.TotalSpots())
	if avail < 0 {
		avail = 0
	}
	if avail > sp.TotalSpots() {
		avail = sp.TotalSpots()
	}
	r.available[sp.ID()] = avail
	r.spots[sp.ID()] = *sp
	return nil
}

func (r *fakeSpotStore) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spots, id)
	delete(r.available, id)
	return nil
}

func (r *fakeSpotStore) Hold(_ context.Context, spotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spots[spotID]; !ok {
		return 0, domain.NewNotFoundError("Spot", spotID.String())
	}
	if r.available[spotID] <= 0 {
		return 0, domain.NewSoldOutError("Spot", spotID.String())
	}
	r.available[spotID]--
	return r.available[spotID], nil
}

func (r *fakeSpotStore) Release(_ context.Context, spotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.spots[spotID]
	if !ok {
		return 0, domain.NewNotFoundError("Spot", spotID.String())
	}
	if r.available[spotID] < sp.TotalSpots() {
		r.available[spotID]++
	}
	return r.available[spotID], nil
}

// fakeOwnerRepo is an in-memory ProfileRepository.
type fakeOwnerRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]ownerDomain.Profile
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{profiles: make(map[uuid.UUID]ownerDomain.Profile)}
}

func (r *fakeOwnerRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*ownerDomain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.NewNotFoundError("OwnerProfile", userID.String())
	}
	return &p, nil
}

func (r *fakeOwnerRepo) Save(_ context.Context, p *ownerDomain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID()] = *p
	return nil
}

func (r *fakeOwnerRepo) Update(_ context.Context, p *ownerDomain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID()] = *p
	return nil
}

// emittedEvent records one NotificationEmitter call.
type emittedEvent struct {
	eventType string
	payload   events.BookingLifecycleEvent
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (e *recordingEmitter) BookingTransitioned(_ context.Context, eventType string, evt events.BookingLifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{eventType: eventType, payload: evt})
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.eventType
	}
	return out
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
