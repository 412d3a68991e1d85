package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Parastud/ParkEase/internal/domain/notification"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// NotificationService serves the per-user notification feed.
type NotificationService struct {
	notifications notification.Repository
	logger        *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifications notification.Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// ListNotifications returns the acting user's notifications, newest
// first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[*notification.Notification], error) {
	items, total, err := s.notifications.FindByRecipientID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(items, total, page, limit)
	return &result, nil
}

// MarkRead marks one of the acting user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, userID)
}
