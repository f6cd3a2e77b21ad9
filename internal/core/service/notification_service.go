package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// NotificationService is the inbox surface: listing and marking read.
// Ownership of an entry is enforced in the repository, not assumed from
// routing.
type NotificationService struct {
	repo   ports.NotificationRepository
	logger zerolog.Logger
}

func NewNotificationService(repo ports.NotificationRepository, logger zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, caller ports.Caller, unreadOnly bool) ([]*domain.Notification, error) {
	return s.repo.ListByOwner(ctx, caller.ID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, caller ports.Caller, id string) (*domain.Notification, error) {
	notification, err := s.repo.MarkRead(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("notification_id", id).Str("owner_id", caller.ID).Msg("notification read")
	return notification, nil
}
