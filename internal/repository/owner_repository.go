package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ownerDomain "github.com/Parastud/ParkEase/internal/domain/owner"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// OwnerProfileModel is the GORM model for the owner_profiles table.
type OwnerProfileModel struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessName string    `gorm:"not null;size:200"`
	Address      string    `gorm:"not null;size:500"`
	City         string    `gorm:"not null;size:100"`
	State        string    `gorm:"not null;size:100"`
	PostalCode   string    `gorm:"size:20"`
	PhoneNumber  string    `gorm:"not null;size:30"`
	TaxID        string    `gorm:"size:50"`
	Description  string    `gorm:"size:1000"`
	Verified     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (OwnerProfileModel) TableName() string {
	return "owner_profiles"
}

// GormOwnerProfileRepository is the GORM-based implementation of ProfileRepository.
type GormOwnerProfileRepository struct {
	db *gorm.DB
}

// NewGormOwnerProfileRepository creates a new GormOwnerProfileRepository.
func NewGormOwnerProfileRepository(db *gorm.DB) *GormOwnerProfileRepository {
	return &GormOwnerProfileRepository{db: db}
}

// FindByUserID retrieves the profile registered by a user.
func (r *GormOwnerProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*ownerDomain.Profile, error) {
	var model OwnerProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("OwnerProfile", userID.String())
		}
		return nil, fmt.Errorf("failed to find owner profile: %w", err)
	}
	return toDomainProfile(&model), nil
}

// Save persists a new owner profile.
func (r *GormOwnerProfileRepository) Save(ctx context.Context, p *ownerDomain.Profile) error {
	if err := r.db.WithContext(ctx).Create(toProfileModel(p)).Error; err != nil {
		return fmt.Errorf("failed to save owner profile: %w", err)
	}
	return nil
}

// Update persists changes to an existing owner profile.
func (r *GormOwnerProfileRepository) Update(ctx context.Context, p *ownerDomain.Profile) error {
	result := r.db.WithContext(ctx).
		Model(&OwnerProfileModel{}).
		Where("user_id = ?", p.UserID()).
		Updates(toProfileModel(p))
	if result.Error != nil {
		return fmt.Errorf("failed to update owner profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("OwnerProfile", p.UserID().String())
	}
	return nil
}

func toProfileModel(p *ownerDomain.Profile) *OwnerProfileModel {
	return &OwnerProfileModel{
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
		UpdatedAt:    p.UpdatedAt(),
	}
}

func toDomainProfile(m *OwnerProfileModel) *ownerDomain.Profile {
	return ownerDomain.Reconstruct(
		m.UserID,
		m.BusinessName,
		m.Address,
		m.City,
		m.State,
		m.PostalCode,
		m.PhoneNumber,
		m.TaxID,
		m.Description,
		m.Verified,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
