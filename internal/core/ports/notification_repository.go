package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// NotificationRepository is the per-recipient inbox store. Writes are
// append-only; the single permitted mutation is the owner marking an entry
// read.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error

	// ListByOwner returns the owner's notifications newest first. With
	// unreadOnly set, read entries are excluded.
	ListByOwner(ctx context.Context, ownerID string, unreadOnly bool) ([]*domain.Notification, error)

	// MarkRead flips the read flag, but only when ownerID matches the stored
	// owner. A mismatch returns domain.ErrForbidden, a missing id
	// domain.ErrNotificationNotFound.
	MarkRead(ctx context.Context, id, ownerID string) (*domain.Notification, error)
}
