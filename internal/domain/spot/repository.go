package spot

import (
	"context"

	"github.com/google/uuid"
)

// SpotRepository defines the persistence contract for spot aggregates.
// Update never writes the available count; that column belongs to the
// AvailabilityLedger.
type SpotRepository interface {
	// FindByID retrieves a spot by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Spot, error)

	// FindByOwnerID retrieves the spots belonging to an owner.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Spot, error)

	// ListAll retrieves all spots with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Spot, int64, error)

	// Save persists a new spot.
	Save(ctx context.Context, s *Spot) error

	// Update persists owner edits with optimistic locking.
	Update(ctx context.Context, s *Spot) error

	// Delete removes a spot.
	Delete(ctx context.Context, id uuid.UUID) error
}
