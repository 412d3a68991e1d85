package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SpotID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	SpotTitle      string     `gorm:"not null;size:200"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	UserName       string     `gorm:"size:200"`
	StartTime      time.Time  `gorm:"not null"`
	EndTime        time.Time  `gorm:"not null;index"`
	DurationHours  int        `gorm:"not null"`
	TotalCostCents int64      `gorm:"not null"`
	Currency       string     `gorm:"not null;size:3;default:'INR'"`
	Status         string     `gorm:"not null;size:20;index"`
	IdempotencyKey string     `gorm:"size:64;index:idx_bookings_idem,unique,where:idempotency_key <> ''"`
	CancelledAt    *time.Time `gorm:""`
	CompletedAt    *time.Time `gorm:""`
	RejectedAt     *time.Time `gorm:""`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByIdempotencyKey retrieves the booking created under a client key.
func (r *GormBookingRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", key)
		}
		return nil, fmt.Errorf("failed to find booking by idempotency key: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// FindBySpotIDs retrieves bookings referencing any of the given spots.
func (r *GormBookingRepository) FindBySpotIDs(ctx context.Context, spotIDs []uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	if len(spotIDs) == 0 {
		return nil, 0, nil
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("spot_id IN ?", spotIDs).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count spot bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("spot_id IN ?", spotIDs).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find spot bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// FindByStatus retrieves bookings in the given status with pagination.
func (r *GormBookingRepository) FindByStatus(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("status = ?", status.String()).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("status = ?", status.String()).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings by status: %w", err)
	}

	return toDomainBookings(models, total)
}

// FindExpired retrieves capacity-holding bookings whose end time has passed.
func (r *GormBookingRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	holding := make([]string, 0, 2)
	for _, s := range bookingDomain.HoldingStatuses() {
		holding = append(holding, s.String())
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND end_time <= ?", holding, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		b, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = b
	}
	return bookings, nil
}

// CountHoldingBySpotID counts capacity-holding bookings for a spot.
func (r *GormBookingRepository) CountHoldingBySpotID(ctx context.Context, spotID uuid.UUID) (int64, error) {
	holding := make([]string, 0, 2)
	for _, s := range bookingDomain.HoldingStatuses() {
		holding = append(holding, s.String())
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("spot_id = ? AND status IN ?", spotID, holding).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count holding bookings: %w", err)
	}
	return count, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic
// locking. The CAS on version is what makes concurrent sweeps and
// live transitions safe: only one writer wins the transition and only
// the winner releases the spot's held unit.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)

	expectedVersion := b.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"cancelled_at": model.CancelledAt,
			"completed_at": model.CompletedAt,
			"rejected_at":  model.RejectedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             b.ID(),
		SpotID:         b.SpotID(),
		SpotTitle:      b.SpotTitle(),
		UserID:         b.UserID(),
		UserName:       b.UserName(),
		StartTime:      b.StartTime(),
		EndTime:        b.EndTime(),
		DurationHours:  b.DurationHours(),
		TotalCostCents: b.TotalCostCents(),
		Currency:       b.Currency(),
		Status:         string(b.Status()),
		IdempotencyKey: b.IdempotencyKey(),
		CancelledAt:    b.CancelledAt(),
		CompletedAt:    b.CompletedAt(),
		RejectedAt:     b.RejectedAt(),
		Version:        b.Version(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.SpotID,
		m.SpotTitle,
		m.UserID,
		m.UserName,
		m.StartTime,
		m.EndTime,
		m.DurationHours,
		m.TotalCostCents,
		m.Currency,
		status,
		m.IdempotencyKey,
		m.CancelledAt,
		m.CompletedAt,
		m.RejectedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		b, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = b
	}
	return bookings, total, nil
}
