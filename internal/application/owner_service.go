package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ownerDomain "github.com/Parastud/ParkEase/internal/domain/owner"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// OwnerProfileRequest holds the data for registering or updating an
// owner's business profile.
type OwnerProfileRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	PostalCode   string `json:"postal_code"`
	PhoneNumber  string `json:"phone_number" binding:"required"`
	TaxID        string `json:"tax_id"`
	Description  string `json:"description"`
}

// OwnerProfileDTO is the response representation of an owner profile.
type OwnerProfileDTO struct {
	UserID       uuid.UUID `json:"user_id"`
	BusinessName string    `json:"business_name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	PhoneNumber  string    `json:"phone_number"`
	TaxID        string    `json:"tax_id"`
	Description  string    `json:"description"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnerService manages owner business profiles.
type OwnerService struct {
	owners ownerDomain.ProfileRepository
	logger *zap.Logger
	clock  func() time.Time
}

// NewOwnerService creates a new OwnerService.
func NewOwnerService(owners ownerDomain.ProfileRepository, logger *zap.Logger, clock func() time.Time) *OwnerService {
	return &OwnerService{owners: owners, logger: logger, clock: clock}
}

// RegisterOwner creates the acting user's business profile, or updates
// it if one already exists (the registration form doubles as the edit
// form).
func (s *OwnerService) RegisterOwner(ctx context.Context, userID uuid.UUID, req OwnerProfileRequest) (*OwnerProfileDTO, error) {
	now := s.clock()

	existing, err := s.owners.FindByUserID(ctx, userID)
	if err == nil {
		if err := existing.UpdateDetails(
			now,
			req.BusinessName,
			req.Address,
			req.City,
			req.State,
			req.PostalCode,
			req.PhoneNumber,
			req.TaxID,
			req.Description,
		); err != nil {
			return nil, err
		}
		if err := s.owners.Update(ctx, existing); err != nil {
			return nil, err
		}
		result := toProfileDTO(existing)
		return &result, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	profile, err := ownerDomain.NewProfile(
		now,
		userID,
		req.BusinessName,
		req.Address,
		req.City,
		req.State,
		req.PostalCode,
		req.PhoneNumber,
		req.TaxID,
		req.Description,
	)
	if err != nil {
		return nil, err
	}

	if err := s.owners.Save(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("owner profile registered", zap.String("user_id", userID.String()))

	result := toProfileDTO(profile)
	return &result, nil
}

// GetProfile retrieves the acting user's business profile.
func (s *OwnerService) GetProfile(ctx context.Context, userID uuid.UUID) (*OwnerProfileDTO, error) {
	profile, err := s.owners.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toProfileDTO(profile)
	return &result, nil
}

// VerifyOwner marks a profile as verified (admin).
func (s *OwnerService) VerifyOwner(ctx context.Context, userID uuid.UUID) (*OwnerProfileDTO, error) {
	profile, err := s.owners.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.MarkVerified(s.clock())
	if err := s.owners.Update(ctx, profile); err != nil {
		return nil, err
	}

	result := toProfileDTO(profile)
	return &result, nil
}

func toProfileDTO(p *ownerDomain.Profile) OwnerProfileDTO {
	return OwnerProfileDTO{
		UserID:       p.UserID(),
		BusinessName: p.BusinessName(),
		Address:      p.Address(),
		City:         p.City(),
		State:        p.State(),
		PostalCode:   p.PostalCode(),
		PhoneNumber:  p.PhoneNumber(),
		TaxID:        p.TaxID(),
		Description:  p.Description(),
		Verified:     p.Verified(),
		CreatedAt:    p.CreatedAt(),
	}
}
