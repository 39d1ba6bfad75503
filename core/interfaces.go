//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"

	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (UserProfile, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	SwitchTenant(ctx context.Context, userID, tenantID string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, resetToken, newPassword string) error
	GetUser(ctx context.Context, userID string) (UserProfile, error)

	IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc
}

type GuestService interface {
	Create(ctx context.Context, requester Requester, draft GuestDraft) (Guest, error)
	Get(ctx context.Context, requester Requester, id string) (Guest, error)
	Query(ctx context.Context, requester Requester, query GuestQuery) (Page[Guest], error)
	Update(ctx context.Context, requester Requester, id string, patch GuestPatch) (Guest, error)
	Delete(ctx context.Context, requester Requester, id string) error
	UpdateStatus(ctx context.Context, requester Requester, id, status string) (Guest, error)
	Stats(ctx context.Context, requester Requester) (GuestStats, error)
	Count(ctx context.Context) (int64, error)
}

type HouseholdService interface {
	Get(ctx context.Context, id string) (Household, error)
	GetMine(ctx context.Context, requester Requester) (Household, error)
	Count(ctx context.Context) (int64, error)
}

type NotificationService interface {
	Create(ctx context.Context, notification Notification) (Notification, error)
	List(ctx context.Context, requester Requester, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, requester Requester) (int64, error)
	MarkRead(ctx context.Context, requester Requester, id string) (Notification, error)
	MarkAllRead(ctx context.Context, requester Requester) error
	Delete(ctx context.Context, requester Requester, id string) error
}

type AnnouncementService interface {
	Create(ctx context.Context, requester Requester, announcement Announcement) (Announcement, error)
	Get(ctx context.Context, requester Requester, id string) (Announcement, error)
	ListActive(ctx context.Context, requester Requester) ([]Announcement, error)
	CountActive(ctx context.Context, tenantID string) (int64, error)
}

type StatsService interface {
	Dashboard(ctx context.Context, requester Requester) (DashboardStats, error)
}
