package notification

import (
	"context"

	"github.com/rs/xid"

	"github.com/aldea-dev/aldea/core"
)

const defaultListLimit = 50

type service struct {
	repo Repository
}

// NewService creates a new notification service
func NewService(repo Repository) core.NotificationService {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, notification core.Notification) (core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.Create")
	defer span.End()

	if notification.ID == "" {
		notification.ID = xid.New().String()
	}
	if notification.Priority == "" {
		notification.Priority = core.PriorityNormal
	}

	return s.repo.Create(ctx, notification)
}

func (s *service) List(ctx context.Context, requester core.Requester, limit int) ([]core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.List")
	defer span.End()

	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	return s.repo.List(ctx, requester.UserID, requester.TenantID, limit)
}

func (s *service) UnreadCount(ctx context.Context, requester core.Requester) (int64, error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.UnreadCount")
	defer span.End()

	return s.repo.UnreadCount(ctx, requester.UserID, requester.TenantID)
}

func (s *service) MarkRead(ctx context.Context, requester core.Requester, id string) (core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.MarkRead")
	defer span.End()

	notification, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Notification{}, err
	}
	if notification.UserID != requester.UserID {
		return core.Notification{}, core.NewErrorNotFound()
	}
	if notification.IsRead {
		return notification, nil
	}

	return s.repo.MarkRead(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, requester core.Requester) error {
	ctx, span := tracer.Start(ctx, "Notification.Service.MarkAllRead")
	defer span.End()

	return s.repo.MarkAllRead(ctx, requester.UserID, requester.TenantID)
}

func (s *service) Delete(ctx context.Context, requester core.Requester, id string) error {
	ctx, span := tracer.Start(ctx, "Notification.Service.Delete")
	defer span.End()

	notification, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if notification.UserID != requester.UserID {
		return core.NewErrorNotFound()
	}

	return s.repo.Delete(ctx, notification)
}
