package owner

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines persistence operations for owner profiles.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
}
