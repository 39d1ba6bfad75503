package announcement

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/aldea-dev/aldea/core"
)

type service struct {
	repo Repository
}

// NewService creates a new announcement service
func NewService(repo Repository) core.AnnouncementService {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, requester core.Requester, announcement core.Announcement) (core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Service.Create")
	defer span.End()

	if requester.RoleCode != core.RoleAdmin {
		return core.Announcement{}, core.NewErrorPermissionDenied()
	}
	if announcement.Title == "" || announcement.Content == "" {
		return core.Announcement{}, core.NewValidationError(
			core.FieldError{Field: "title", Message: "title and content are required"},
		)
	}

	announcement.ID = xid.New().String()
	announcement.TenantID = requester.TenantID
	announcement.PublishedBy = requester.UserID
	if announcement.Type == "" {
		announcement.Type = "general"
	}
	if announcement.Priority == "" {
		announcement.Priority = core.PriorityNormal
	}
	if announcement.PublishDate.IsZero() {
		announcement.PublishDate = time.Now()
	}

	return s.repo.Create(ctx, announcement)
}

func (s *service) Get(ctx context.Context, requester core.Requester, id string) (core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Service.Get")
	defer span.End()

	announcement, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Announcement{}, err
	}
	if announcement.TenantID != requester.TenantID {
		return core.Announcement{}, core.NewErrorNotFound()
	}
	return announcement, nil
}

func (s *service) ListActive(ctx context.Context, requester core.Requester) ([]core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Service.ListActive")
	defer span.End()

	return s.repo.ListActive(ctx, requester.TenantID, time.Now())
}

func (s *service) CountActive(ctx context.Context, tenantID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Service.CountActive")
	defer span.End()

	return s.repo.CountActive(ctx, tenantID, time.Now())
}
