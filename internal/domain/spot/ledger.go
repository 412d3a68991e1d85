package spot

import (
	"context"

	"github.com/google/uuid"
)

// AvailabilityLedger adjusts a spot's available count in lockstep with
// booking lifecycle transitions. Implementations must make each
// operation atomic against the store: no caller may observe or produce
// an available count below zero or above the spot's total.
type AvailabilityLedger interface {
	// Hold decrements the spot's available count by one and returns
	// the new count. Fails with a not-found error if the spot does not
	// exist and a sold-out error if nothing is available.
	Hold(ctx context.Context, spotID uuid.UUID) (int, error)

	// Release increments the spot's available count by one, capped at
	// the spot's total, and returns the new count. A release that
	// would exceed the total is clamped and logged, not failed.
	Release(ctx context.Context, spotID uuid.UUID) (int, error)
}
