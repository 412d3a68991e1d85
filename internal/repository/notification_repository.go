package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	notificationDomain "github.com/Parastud/ParkEase/internal/domain/notification"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID  `gorm:"type:uuid;index;not null"`
	Type        string     `gorm:"not null;size:40"`
	Message     string     `gorm:"not null;size:500"`
	BookingID   *uuid.UUID `gorm:"type:uuid"`
	Read        bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (NotificationModel) TableName() string {
	return "notifications"
}

// GormNotificationRepository is the GORM-based implementation of the
// notification Repository.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save persists a notification.
func (r *GormNotificationRepository) Save(ctx context.Context, n *notificationDomain.Notification) error {
	model := &NotificationModel{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        string(n.Type),
		Message:     n.Message,
		BookingID:   n.BookingID,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// FindByRecipientID retrieves a user's notifications, newest first.
func (r *GormNotificationRepository) FindByRecipientID(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]*notificationDomain.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&NotificationModel{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var models []NotificationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find notifications: %w", err)
	}

	notifications := make([]*notificationDomain.Notification, len(models))
	for i, m := range models {
		notifications[i] = &notificationDomain.Notification{
			ID:          m.ID,
			RecipientID: m.RecipientID,
			Type:        notificationDomain.Type(m.Type),
			Message:     m.Message,
			BookingID:   m.BookingID,
			Read:        m.Read,
			CreatedAt:   m.CreatedAt,
		}
	}
	return notifications, total, nil
}

// MarkRead flags a notification as read for its recipient.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Notification", id.String())
	}
	return nil
}
