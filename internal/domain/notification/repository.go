package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	FindByRecipientID(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}
