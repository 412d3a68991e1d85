//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Parastud/ParkEase/internal/application"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
	"github.com/Parastud/ParkEase/internal/pkg/events"
	"github.com/Parastud/ParkEase/internal/repository"
)

// TestConcurrentCreates_NeverOversell hammers one spot with more
// concurrent booking attempts than it has capacity and verifies the
// guarded decrement admits exactly the capacity.
func TestConcurrentCreates_NeverOversell(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	const total = 5
	const attempts = 20
	spotID := seedSpot(t, infra.DB, uuid.New(), total, false)

	start := time.Now().UTC().Add(time.Hour)
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stack.Bookings.CreateBooking(context.Background(), uuid.New(), "load", application.CreateBookingRequest{
				SpotID:    spotID,
				StartTime: start,
				EndTime:   start.Add(2 * time.Hour),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, soldOut := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.CodeOf(err) == domain.ErrCodeSoldOut:
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, total, succeeded, "exactly the capacity succeeds")
	assert.Equal(t, attempts-total, soldOut)
	assert.Equal(t, 0, spotAvailability(t, infra.DB, spotID))

	var count int64
	require.NoError(t, infra.DB.Model(&repository.BookingModel{}).Where("spot_id = ?", spotID).Count(&count).Error)
	assert.Equal(t, int64(total), count)
}

// TestCancel_RestoresAvailability runs the create/cancel round trip
// against real Postgres.
func TestCancel_RestoresAvailability(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	spotID := seedSpot(t, infra.DB, uuid.New(), 3, false)
	userID := uuid.New()

	start := time.Now().UTC().Add(time.Hour)
	created, err := stack.Bookings.CreateBooking(context.Background(), userID, "Asha", application.CreateBookingRequest{
		SpotID:    spotID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 2, spotAvailability(t, infra.DB, spotID))

	_, err = stack.Bookings.CancelBooking(context.Background(), created.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, 3, spotAvailability(t, infra.DB, spotID))
	waitForBookingStatus(t, infra.DB, created.ID, "cancelled", 5*time.Second)
}

// TestSweep_ReleasesExpiredBookings seeds an already-ended confirmed
// booking and verifies one sweep completes it and returns the unit.
func TestSweep_ReleasesExpiredBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	spotID := seedSpot(t, infra.DB, uuid.New(), 2, false)
	now := time.Now().UTC()

	bookingID := uuid.New()
	model := repository.BookingModel{
		ID:             bookingID,
		SpotID:         spotID,
		SpotTitle:      "Integration Lot",
		UserID:         uuid.New(),
		UserName:       "Asha",
		StartTime:      now.Add(-3 * time.Hour),
		EndTime:        now.Add(-time.Hour),
		DurationHours:  2,
		TotalCostCents: 4000,
		Currency:       "INR",
		Status:         "confirmed",
		Version:        1,
		CreatedAt:      now.Add(-3 * time.Hour),
		UpdatedAt:      now.Add(-3 * time.Hour),
	}
	require.NoError(t, infra.DB.Create(&model).Error)
	// Take the unit the seeded booking is holding.
	_, err := stack.Ledger.Hold(context.Background(), spotID)
	require.NoError(t, err)
	require.Equal(t, 1, spotAvailability(t, infra.DB, spotID))

	count, err := stack.Sweeper.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	waitForBookingStatus(t, infra.DB, bookingID, "completed", 5*time.Second)
	assert.Equal(t, 2, spotAvailability(t, infra.DB, spotID))

	// A second sweep is a no-op.
	count, err = stack.Sweeper.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 2, spotAvailability(t, infra.DB, spotID))
}

// TestBookingEventConsumer_WritesNotifications verifies the end to end
// flow: a create publishes a CloudEvent on the booking topic and the
// consumer persists notification rows for both parties.
func TestBookingEventConsumer_WritesNotifications(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	ownerID := uuid.New()
	userID := uuid.New()
	spotID := seedSpot(t, infra.DB, ownerID, 3, false)

	start := time.Now().UTC().Add(time.Hour)
	created, err := stack.Bookings.CreateBooking(context.Background(), userID, "Asha", application.CreateBookingRequest{
		SpotID:    spotID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingConfirmed, 15*time.Second)

	var evt events.BookingLifecycleEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, created.ID, evt.BookingID)
	assert.Equal(t, ownerID, evt.SpotOwnerID)
	assert.Equal(t, int64(4000), evt.TotalCostCents)

	// Both the driver and the owner get a feed entry.
	for _, recipient := range []uuid.UUID{userID, ownerID} {
		recipient := recipient
		require.Eventually(t, func() bool {
			var count int64
			err := infra.DB.Model(&repository.NotificationModel{}).
				Where("recipient_id = ?", recipient).Count(&count).Error
			return err == nil && count > 0
		}, 15*time.Second, 500*time.Millisecond, "no notification for %s", recipient)
	}
}

// TestSpotEdit_PreservesConcurrentHold interleaves a ledger hold with
// an owner edit and verifies the edit cannot write a stale available
// count back over the held unit.
func TestSpotEdit_PreservesConcurrentHold(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()
	spotID := seedSpot(t, infra.DB, uuid.New(), 5, false)

	sp, err := stack.Spots.FindByID(ctx, spotID)
	require.NoError(t, err)

	// A booking lands between the owner's read and write.
	_, err = stack.Ledger.Hold(ctx, spotID)
	require.NoError(t, err)
	require.Equal(t, 4, spotAvailability(t, infra.DB, spotID))

	now := time.Now().UTC()
	require.NoError(t, sp.UpdateDetails(now, "Renamed Lot", sp.Description(), sp.Address(),
		sp.Coordinate(), sp.PricePerHourCents(), sp.RequiresApproval(), sp.Features(), sp.ImageURLs()))
	sp.IncrementVersion(now)
	require.NoError(t, stack.Spots.Update(ctx, sp))

	assert.Equal(t, 4, spotAvailability(t, infra.DB, spotID),
		"edit must not resurrect the held unit")

	// A capacity resize shifts availability by the delta, still
	// honoring the live hold.
	resized, err := stack.Spots.FindByID(ctx, spotID)
	require.NoError(t, err)
	require.NoError(t, resized.ChangeCapacity(now, 8))
	resized.IncrementVersion(now)
	require.NoError(t, stack.Spots.Update(ctx, resized))

	assert.Equal(t, 7, spotAvailability(t, infra.DB, spotID))
}
