// Package stats aggregates the dashboard counters
package stats

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/aldea-dev/aldea/core"
)

var tracer = otel.Tracer("stats")

type service struct {
	guest        core.GuestService
	notification core.NotificationService
	announcement core.AnnouncementService
}

// NewService creates a new stats service
func NewService(guest core.GuestService, notification core.NotificationService, announcement core.AnnouncementService) core.StatsService {
	return &service{
		guest:        guest,
		notification: notification,
		announcement: announcement,
	}
}

func (s *service) Dashboard(ctx context.Context, requester core.Requester) (core.DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "Stats.Service.Dashboard")
	defer span.End()

	guests, err := s.guest.Stats(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return core.DashboardStats{}, err
	}

	unread, err := s.notification.UnreadCount(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return core.DashboardStats{}, err
	}

	active, err := s.announcement.CountActive(ctx, requester.TenantID)
	if err != nil {
		span.RecordError(err)
		return core.DashboardStats{}, err
	}

	return core.DashboardStats{
		Guests:              guests,
		UnreadNotifications: unread,
		ActiveAnnouncements: active,
	}, nil
}
