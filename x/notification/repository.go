//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/aldea-dev/aldea/core"
)

var tracer = otel.Tracer("notification")

// TableName is the resource table announced on the change feed.
const TableName = "notifications"

// UserFilter is the change-feed filter expression scoping a channel to
// one user's inbox.
func UserFilter(userID string) string {
	return "user_id=eq." + userID
}

// Repository is the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification core.Notification) (core.Notification, error)
	Get(ctx context.Context, id string) (core.Notification, error)
	List(ctx context.Context, userID, tenantID string, limit int) ([]core.Notification, error)
	UnreadCount(ctx context.Context, userID, tenantID string) (int64, error)
	MarkRead(ctx context.Context, id string) (core.Notification, error)
	MarkAllRead(ctx context.Context, userID, tenantID string) error
	Delete(ctx context.Context, notification core.Notification) error
}

type repository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewRepository creates a new notification repository
func NewRepository(db *gorm.DB, rdb *redis.Client) Repository {
	return &repository{db: db, rdb: rdb}
}

func wireRow(n core.Notification) map[string]any {
	row := map[string]any{
		"id":         n.ID,
		"tenant_id":  n.TenantID,
		"user_id":    n.UserID,
		"type":       n.Type,
		"priority":   n.Priority,
		"title":      n.Title,
		"content":    n.Content,
		"is_read":    n.IsRead,
		"created_at": n.CreatedAt.Format(time.RFC3339Nano),
	}
	if n.RelatedEntityID != nil {
		row["related_entity_id"] = *n.RelatedEntityID
	}
	if n.RelatedEntityType != nil {
		row["related_entity_type"] = *n.RelatedEntityType
	}
	return row
}

func (r *repository) Create(ctx context.Context, notification core.Notification) (core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.Create")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&notification).Error
	if err != nil {
		span.RecordError(err)
		return core.Notification{}, err
	}

	created, err := r.Get(ctx, notification.ID)
	if err != nil {
		return core.Notification{}, err
	}

	r.publishEvent(ctx, core.EventInsert, nil, &created)

	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.Get")
	defer span.End()

	var notification core.Notification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.Notification{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.Notification{}, err
	}
	return notification, nil
}

func (r *repository) List(ctx context.Context, userID, tenantID string, limit int) ([]core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.List")
	defer span.End()

	var notifications []core.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return notifications, nil
}

func (r *repository) UnreadCount(ctx context.Context, userID, tenantID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.UnreadCount")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&core.Notification{}).
		Where("user_id = ? AND tenant_id = ? AND is_read = false", userID, tenantID).
		Count(&count).Error
	return count, err
}

func (r *repository) MarkRead(ctx context.Context, id string) (core.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.MarkRead")
	defer span.End()

	before, err := r.Get(ctx, id)
	if err != nil {
		return core.Notification{}, err
	}

	err = r.db.WithContext(ctx).
		Model(&core.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
	if err != nil {
		span.RecordError(err)
		return core.Notification{}, err
	}

	after := before
	after.IsRead = true

	r.publishEvent(ctx, core.EventUpdate, &before, &after)

	return after, nil
}

func (r *repository) MarkAllRead(ctx context.Context, userID, tenantID string) error {
	ctx, span := tracer.Start(ctx, "Notification.Repository.MarkAllRead")
	defer span.End()

	// bulk update, no per-row events: clients refetch on the next page load
	err := r.db.WithContext(ctx).
		Model(&core.Notification{}).
		Where("user_id = ? AND tenant_id = ? AND is_read = false", userID, tenantID).
		Update("is_read", true).Error
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *repository) Delete(ctx context.Context, notification core.Notification) error {
	ctx, span := tracer.Start(ctx, "Notification.Repository.Delete")
	defer span.End()

	err := r.db.WithContext(ctx).Delete(&core.Notification{}, "id = ?", notification.ID).Error
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.publishEvent(ctx, core.EventDelete, &notification, nil)

	return nil
}

func (r *repository) publishEvent(ctx context.Context, eventType core.EventType, before, after *core.Notification) {
	ctx, span := tracer.Start(ctx, "Notification.Repository.publishEvent")
	defer span.End()

	var beforeRow, afterRow json.RawMessage
	userID := ""
	if before != nil {
		beforeRow, _ = json.Marshal(wireRow(*before))
		userID = before.UserID
	}
	if after != nil {
		afterRow, _ = json.Marshal(wireRow(*after))
		userID = after.UserID
	}

	channel := core.Chan(TableName, UserFilter(userID))
	event := core.Event{
		Channel: channel,
		Type:    eventType,
		Table:   TableName,
		Before:  beforeRow,
		After:   afterRow,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return
	}
	err = r.rdb.Publish(ctx, channel, payload).Err()
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "fail to publish change event to Redis",
			slog.String("error", err.Error()),
			slog.String("module", "notification"),
		)
	}
}
