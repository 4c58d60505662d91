package services

import (
	"context"

	"github.com/google/uuid"

	"linkgraph/domain"
	"linkgraph/repositories"
)

// DefaultNotificationLimit caps listings at the 50 most recent records.
const DefaultNotificationLimit = 50

type INotificationService interface {
	List(ctx context.Context, actor domain.Actor) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, acting domain.Actor) error
	MarkAllRead(ctx context.Context, acting domain.Actor) error
	MarkCompleted(ctx context.Context, id uuid.UUID, relatedID string) error
}

type NotificationService struct {
	notifications repositories.INotificationRepository
	limit         int
}

func NewNotificationService(notifications repositories.INotificationRepository, limit *int) *NotificationService {
	s := &NotificationService{notifications: notifications, limit: DefaultNotificationLimit}
	if limit != nil {
		s.limit = *limit
	}
	return s
}

func (s *NotificationService) List(_ context.Context, actor domain.Actor) ([]domain.Notification, error) {
	return s.notifications.List(actor, s.limit)
}

func (s *NotificationService) MarkRead(_ context.Context, id uuid.UUID, acting domain.Actor) error {
	return s.notifications.MarkRead(id, acting)
}

func (s *NotificationService) MarkAllRead(_ context.Context, acting domain.Actor) error {
	return s.notifications.MarkAllRead(acting)
}

func (s *NotificationService) MarkCompleted(_ context.Context, id uuid.UUID, relatedID string) error {
	return s.notifications.MarkCompleted(id, relatedID)
}
