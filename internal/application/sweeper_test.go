package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/events"
)

type sweeperFixture struct {
	sweeper *ExpirySweeper
	repo    *fakeBookingRepo
	store   *fakeSpotStore
	emitter *recordingEmitter
	now     time.Time
	spot    *spotDomain.Spot
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	sp, err := spotDomain.NewSpot(now, uuid.New(), "MG Road Basement", "", "",
		spotDomain.Coordinate{Latitude: 12.9716, Longitude: 77.5946},
		2000, 5, false, spotDomain.Features{}, nil)
	require.NoError(t, err)

	repo := newFakeBookingRepo()
	store := newFakeSpotStore()
	store.add(sp)
	emitter := &recordingEmitter{}

	sweeper := NewExpirySweeper(repo, store, emitter, zap.NewNop(), fixedClock(now), time.Minute)

	return &sweeperFixture{
		sweeper: sweeper,
		repo:    repo,
		store:   store,
		emitter: emitter,
		now:     now,
		spot:    sp,
	}
}

// seedHeldBooking inserts a capacity-holding booking ending at end and
// takes its hold on the ledger, the way creation does.
func (f *sweeperFixture) seedHeldBooking(t *testing.T, status bookingDomain.BookingStatus, end time.Time) *bookingDomain.Booking {
	t.Helper()
	created := end.Add(-3 * time.Hour)
	bk, err := bookingDomain.NewBooking(created, uuid.New(), "Asha",
		f.spot.ID(), f.spot.Title(), created.Add(time.Hour), end,
		2, 4000, "INR", status == bookingDomain.StatusPending, "")
	require.NoError(t, err)
	require.Equal(t, status, bk.Status())

	require.NoError(t, f.repo.Save(context.Background(), bk))
	_, err = f.store.Hold(context.Background(), f.spot.ID())
	require.NoError(t, err)
	return bk
}

func (f *sweeperFixture) availability(t *testing.T) int {
	t.Helper()
	sp, err := f.store.FindByID(context.Background(), f.spot.ID())
	require.NoError(t, err)
	return sp.AvailableSpots()
}

func TestSweep_CompletesExpiredConfirmed(t *testing.T) {
	f := newSweeperFixture(t)
	bk := f.seedHeldBooking(t, bookingDomain.StatusConfirmed, f.now.Add(-time.Hour))
	require.Equal(t, 4, f.availability(t))

	count, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	swept, err := f.repo.FindByID(context.Background(), bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, swept.Status())
	assert.NotNil(t, swept.CompletedAt())
	assert.Equal(t, 5, f.availability(t), "held unit released")
	assert.Equal(t, []string{events.BookingCompleted}, f.emitter.types())
}

func TestSweep_CompletesExpiredPending(t *testing.T) {
	f := newSweeperFixture(t)
	bk := f.seedHeldBooking(t, bookingDomain.StatusPending, f.now.Add(-time.Hour))

	count, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	swept, err := f.repo.FindByID(context.Background(), bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, swept.Status())
	assert.Equal(t, 5, f.availability(t))
}

func TestSweep_Idempotent(t *testing.T) {
	f := newSweeperFixture(t)
	f.seedHeldBooking(t, bookingDomain.StatusConfirmed, f.now.Add(-time.Hour))

	count, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second sweep with no state change completes nothing")
	assert.Equal(t, 5, f.availability(t), "no double release")
}

func TestSweep_IgnoresUnexpired(t *testing.T) {
	f := newSweeperFixture(t)
	bk := f.seedHeldBooking(t, bookingDomain.StatusConfirmed, f.now.Add(time.Hour))

	count, err := f.sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	kept, err := f.repo.FindByID(context.Background(), bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusConfirmed, kept.Status())
	assert.Equal(t, 4, f.availability(t))
}

// racingBookingRepo cancels the booking between the sweeper's read and
// its write, the way a live cancel request would.
type racingBookingRepo struct {
	*fakeBookingRepo
	raceOnce bool
	raced    bool
	now      time.Time
	ledger   spotDomain.AvailabilityLedger
}

func (r *racingBookingRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	batch, err := r.fakeBookingRepo.FindExpired(ctx, now, limit)
	if err != nil || r.raced || !r.raceOnce {
		return batch, err
	}
	for _, bk := range batch {
		loser, ferr := r.fakeBookingRepo.FindByID(ctx, bk.ID())
		if ferr != nil {
			return nil, ferr
		}
		if cerr := loser.Cancel(r.now); cerr != nil {
			continue
		}
		loser.IncrementVersion(r.now)
		if uerr := r.fakeBookingRepo.Update(ctx, loser); uerr != nil {
			return nil, uerr
		}
		if _, lerr := r.ledger.Release(ctx, bk.SpotID()); lerr != nil {
			return nil, lerr
		}
		r.raced = true
	}
	return batch, nil
}

func TestSweep_LostRaceReleasesNothing(t *testing.T) {
	f := newSweeperFixture(t)
	bk := f.seedHeldBooking(t, bookingDomain.StatusConfirmed, f.now.Add(-time.Hour))
	require.Equal(t, 4, f.availability(t))

	racing := &racingBookingRepo{
		fakeBookingRepo: f.repo,
		raceOnce:        true,
		now:             f.now,
		ledger:          f.store,
	}
	sweeper := NewExpirySweeper(racing, f.store, f.emitter, zap.NewNop(), fixedClock(f.now), time.Minute)

	count, err := sweeper.Sweep(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "the concurrent cancel won the version race")

	final, err := f.repo.FindByID(context.Background(), bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCancelled, final.Status())
	assert.Equal(t, 5, f.availability(t), "released exactly once, by the winner")
	assert.Empty(t, f.emitter.types(), "the loser emits nothing")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newSweeperFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
