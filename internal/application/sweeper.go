package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
	"github.com/Parastud/ParkEase/internal/pkg/events"
)

const sweepBatchSize = 100

// ExpirySweeper completes capacity-holding bookings whose end time has
// passed and releases their held units. It is safe to run concurrently
// with live transitions and with other sweepers: the booking-side
// version CAS decides a single winner per booking, and only the winner
// releases.
type ExpirySweeper struct {
	bookings bookingDomain.BookingRepository
	ledger   spotDomain.AvailabilityLedger
	emitter  NotificationEmitter
	logger   *zap.Logger
	clock    func() time.Time
	interval time.Duration
}

// NewExpirySweeper creates an ExpirySweeper that sweeps every interval
// when run as a background worker.
func NewExpirySweeper(
	bookings bookingDomain.BookingRepository,
	ledger spotDomain.AvailabilityLedger,
	emitter NotificationEmitter,
	logger *zap.Logger,
	clock func() time.Time,
	interval time.Duration,
) *ExpirySweeper {
	return &ExpirySweeper{
		bookings: bookings,
		ledger:   ledger,
		emitter:  emitter,
		logger:   logger,
		clock:    clock,
		interval: interval,
	}
}

// Sweep completes every expired booking as of now and returns how many
// it completed. Calling it again with no state change completes zero.
func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	completed := 0
	for {
		batch, err := s.bookings.FindExpired(ctx, now, sweepBatchSize)
		if err != nil {
			return completed, err
		}
		if len(batch) == 0 {
			return completed, nil
		}

		progressed := false
		for _, bk := range batch {
			if s.complete(ctx, bk, now) {
				completed++
				progressed = true
			}
		}
		// Every entry lost its race to another writer; re-querying
		// would return the same set.
		if !progressed {
			return completed, nil
		}
		if len(batch) < sweepBatchSize {
			return completed, nil
		}
	}
}

// SweepNow runs a sweep at the sweeper's current clock time. Read
// paths that need accurate availability call this first.
func (s *ExpirySweeper) SweepNow(ctx context.Context) (int, error) {
	return s.Sweep(ctx, s.clock())
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *ExpirySweeper) sweepAndLog(ctx context.Context) {
	count, err := s.Sweep(ctx, s.clock())
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("sweep completed bookings", zap.Int("count", count))
	}
}

// complete drives one booking through the completed transition.
// Returns true only when this sweeper won the transition and released
// the held unit.
func (s *ExpirySweeper) complete(ctx context.Context, bk *bookingDomain.Booking, now time.Time) bool {
	// A pending booking past its end was never approved; it still
	// funnels through completed so its held unit is released exactly
	// once. Approve first so the stored transition stays legal.
	if bk.Status() == bookingDomain.StatusPending {
		if err := bk.Approve(now); err != nil {
			return false
		}
	}
	if err := bk.Complete(now); err != nil {
		// Already terminal; nothing to release.
		return false
	}

	bk.IncrementVersion(now)
	if err := s.bookings.Update(ctx, bk); err != nil {
		if domain.IsConflict(err) {
			// Another writer completed or cancelled it first and owns
			// the release.
			return false
		}
		s.logger.Error("failed to persist sweep completion",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return false
	}

	if _, err := s.ledger.Release(ctx, bk.SpotID()); err != nil {
		s.logger.Error("failed to release spot during sweep",
			zap.String("booking_id", bk.ID().String()),
			zap.String("spot_id", bk.SpotID().String()),
			zap.Error(err),
		)
	}

	s.emitter.BookingTransitioned(ctx, events.BookingCompleted, events.BookingLifecycleEvent{
		BookingID:      bk.ID(),
		SpotID:         bk.SpotID(),
		SpotTitle:      bk.SpotTitle(),
		UserID:         bk.UserID(),
		UserName:       bk.UserName(),
		Status:         bk.Status().String(),
		StartTime:      bk.StartTime(),
		EndTime:        bk.EndTime(),
		TotalCostCents: bk.TotalCostCents(),
		Currency:       bk.Currency(),
		OccurredAt:     now,
	})
	return true
}
