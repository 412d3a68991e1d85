package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// SpotModel is the GORM model for the parking_spots table.
type SpotModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title             string          `gorm:"not null;size:200"`
	Description       string          `gorm:"size:1000"`
	Address           string          `gorm:"size:500"`
	Latitude          float64         `gorm:"not null"`
	Longitude         float64         `gorm:"not null"`
	PricePerHourCents int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3;default:'INR'"`
	TotalSpots        int             `gorm:"not null"`
	AvailableSpots    int             `gorm:"not null"`
	RequiresApproval  bool            `gorm:"not null;default:false"`
	Features          json.RawMessage `gorm:"type:jsonb;not null"`
	ImageURLs         json.RawMessage `gorm:"type:jsonb"`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SpotModel) TableName() string {
	return "parking_spots"
}

// GormSpotRepository is the GORM-based implementation of SpotRepository.
type GormSpotRepository struct {
	db *gorm.DB
}

// NewGormSpotRepository creates a new GormSpotRepository.
func NewGormSpotRepository(db *gorm.DB) *GormSpotRepository {
	return &GormSpotRepository{db: db}
}

// FindByID retrieves a spot by its unique identifier.
func (r *GormSpotRepository) FindByID(ctx context.Context, id uuid.UUID) (*spotDomain.Spot, error) {
	var model SpotModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ParkingSpot", id.String())
		}
		return nil, fmt.Errorf("failed to find spot by ID: %w", err)
	}
	return toDomainSpot(&model)
}

// FindByOwnerID retrieves the spots belonging to an owner.
func (r *GormSpotRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*spotDomain.Spot, error) {
	var models []SpotModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find spots by owner: %w", err)
	}

	spots := make([]*spotDomain.Spot, len(models))
	for i, m := range models {
		s, err := toDomainSpot(&m)
		if err != nil {
			return nil, err
		}
		spots[i] = s
	}
	return spots, nil
}

// ListAll retrieves all spots with pagination.
func (r *GormSpotRepository) ListAll(ctx context.Context, page, limit int) ([]*spotDomain.Spot, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&SpotModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count spots: %w", err)
	}

	var models []SpotModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list spots: %w", err)
	}

	spots := make([]*spotDomain.Spot, len(models))
	for i, m := range models {
		s, err := toDomainSpot(&m)
		if err != nil {
			return nil, 0, err
		}
		spots[i] = s
	}
	return spots, total, nil
}

// Save persists a new spot.
func (r *GormSpotRepository) Save(ctx context.Context, s *spotDomain.Spot) error {
	model, err := toSpotModel(s)
	if err != nil {
		return fmt.Errorf("failed to convert spot to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save spot: %w", err)
	}
	return nil
}

// Update persists owner edits with optimistic locking. The available
// count is never written as an absolute value from the aggregate: a
// capacity resize shifts it by the delta against the row's current
// counts, clamped into [0, total] inside the same statement, so a hold
// taken between the caller's read and this write stays counted.
func (r *GormSpotRepository) Update(ctx context.Context, s *spotDomain.Spot) error {
	model, err := toSpotModel(s)
	if err != nil {
		return fmt.Errorf("failed to convert spot to model: %w", err)
	}

	expectedVersion := s.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&SpotModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":                model.Title,
			"description":          model.Description,
			"address":              model.Address,
			"latitude":             model.Latitude,
			"longitude":            model.Longitude,
			"price_per_hour_cents": model.PricePerHourCents,
			"total_spots":          model.TotalSpots,
			"available_spots": gorm.Expr(
				"LEAST(?, GREATEST(0, available_spots + (? - total_spots)))",
				model.TotalSpots, model.TotalSpots,
			),
			"requires_approval": model.RequiresApproval,
			"features":          model.Features,
			"image_urls":        model.ImageURLs,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update spot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("spot was modified by another transaction")
	}
	return nil
}

// Delete removes a spot.
func (r *GormSpotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&SpotModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete spot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("ParkingSpot", id.String())
	}
	return nil
}

// GormAvailabilityLedger implements AvailabilityLedger with
// single-statement guarded updates, so hold and release are atomic in
// the database and no client-side read-then-write window exists.
type GormAvailabilityLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormAvailabilityLedger creates a new GormAvailabilityLedger.
func NewGormAvailabilityLedger(db *gorm.DB, logger *zap.Logger) *GormAvailabilityLedger {
	return &GormAvailabilityLedger{db: db, logger: logger}
}

// Hold atomically decrements the available count, guarded at zero.
func (l *GormAvailabilityLedger) Hold(ctx context.Context, spotID uuid.UUID) (int, error) {
	var available int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE parking_spots
		 SET available_spots = available_spots - 1, updated_at = NOW()
		 WHERE id = ? AND available_spots > 0
		 RETURNING available_spots`,
		spotID,
	).Scan(&available)

	if result.Error != nil {
		return 0, domain.NewUnavailableError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, l.classifyMiss(ctx, spotID, true)
	}
	return available, nil
}

// Release atomically increments the available count, capped at the
// total. A release against a fully available spot is clamped and
// logged as a consistency warning, not failed: the caller's own
// booking-side transition already succeeded.
func (l *GormAvailabilityLedger) Release(ctx context.Context, spotID uuid.UUID) (int, error) {
	var available int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE parking_spots
		 SET available_spots = available_spots + 1, updated_at = NOW()
		 WHERE id = ? AND available_spots < total_spots
		 RETURNING available_spots`,
		spotID,
	).Scan(&available)

	if result.Error != nil {
		return 0, domain.NewUnavailableError(result.Error)
	}
	if result.RowsAffected == 0 {
		err := l.classifyMiss(ctx, spotID, false)
		if err != nil {
			return 0, err
		}
		// Spot exists and is already at full availability: clamped.
		var model SpotModel
		if ferr := l.db.WithContext(ctx).Select("available_spots").Where("id = ?", spotID).First(&model).Error; ferr != nil {
			return 0, domain.NewUnavailableError(ferr)
		}
		l.logger.Warn("consistency warning: release clamped at total capacity",
			zap.String("spot_id", spotID.String()),
			zap.Int("available", model.AvailableSpots),
		)
		return model.AvailableSpots, nil
	}
	return available, nil
}

// classifyMiss distinguishes a missing spot from a guard miss. For
// holds a guard miss means sold out; for releases it means the clamp
// case, which the caller handles.
func (l *GormAvailabilityLedger) classifyMiss(ctx context.Context, spotID uuid.UUID, hold bool) error {
	var count int64
	if err := l.db.WithContext(ctx).Model(&SpotModel{}).Where("id = ?", spotID).Count(&count).Error; err != nil {
		return domain.NewUnavailableError(err)
	}
	if count == 0 {
		return domain.NewNotFoundError("ParkingSpot", spotID.String())
	}
	if hold {
		return domain.NewSoldOutError("ParkingSpot", spotID.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toSpotModel(s *spotDomain.Spot) (*SpotModel, error) {
	featuresJSON, err := json.Marshal(s.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}
	imagesJSON, err := json.Marshal(s.ImageURLs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image URLs: %w", err)
	}

	return &SpotModel{
		ID:                s.ID(),
		OwnerID:           s.OwnerID(),
		Title:             s.Title(),
		Description:       s.Description(),
		Address:           s.Address(),
		Latitude:          s.Coordinate().Latitude,
		Longitude:         s.Coordinate().Longitude,
		PricePerHourCents: s.PricePerHourCents(),
		Currency:          s.Currency(),
		TotalSpots:        s.TotalSpots(),
		AvailableSpots:    s.AvailableSpots(),
		RequiresApproval:  s.RequiresApproval(),
		Features:          featuresJSON,
		ImageURLs:         imagesJSON,
		Version:           s.Version(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}, nil
}

func toDomainSpot(m *SpotModel) (*spotDomain.Spot, error) {
	var features spotDomain.Features
	if err := json.Unmarshal(m.Features, &features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}

	var imageURLs []string
	if len(m.ImageURLs) > 0 {
		if err := json.Unmarshal(m.ImageURLs, &imageURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal image URLs: %w", err)
		}
	}

	return spotDomain.ReconstructSpot(
		m.ID,
		m.OwnerID,
		m.Title,
		m.Description,
		m.Address,
		spotDomain.Coordinate{Latitude: m.Latitude, Longitude: m.Longitude},
		m.PricePerHourCents,
		m.Currency,
		m.TotalSpots,
		m.AvailableSpots,
		m.RequiresApproval,
		features,
		imageURLs,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
