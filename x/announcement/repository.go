//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package announcement

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

var tracer = otel.Tracer("announcement")

// TableName is the resource table announced on the change feed.
const TableName = "announcements"

// TenantFilter is the change-feed filter expression scoping a channel
// to one tenant's notices.
func TenantFilter(tenantID string) string {
	return "tenant_id=eq." + tenantID
}

// Repository is the announcement repository interface
type Repository interface {
	Create(ctx context.Context, announcement core.Announcement) (core.Announcement, error)
	Get(ctx context.Context, id string) (core.Announcement, error)
	ListActive(ctx context.Context, tenantID string, at time.Time) ([]core.Announcement, error)
	CountActive(ctx context.Context, tenantID string, at time.Time) (int64, error)
}

type repository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewRepository creates a new announcement repository
func NewRepository(db *gorm.DB, rdb *redis.Client) Repository {
	return &repository{db: db, rdb: rdb}
}

func wireRow(a core.Announcement) map[string]any {
	row := map[string]any{
		"id":           a.ID,
		"tenant_id":    a.TenantID,
		"type":         a.Type,
		"priority":     a.Priority,
		"title":        a.Title,
		"content":      a.Content,
		"attachments":  []string(a.Attachments),
		"publish_date": a.PublishDate.Format(time.RFC3339Nano),
		"published_by": a.PublishedBy,
		"created_at":   a.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   a.UpdatedAt.Format(time.RFC3339Nano),
	}
	if a.ExpiryDate != nil {
		row["expiry_date"] = a.ExpiryDate.Format(time.RFC3339Nano)
	}
	return row
}

func (r *repository) Create(ctx context.Context, announcement core.Announcement) (core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Repository.Create")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&announcement).Error
	if err != nil {
		span.RecordError(err)
		return core.Announcement{}, err
	}

	created, err := r.Get(ctx, announcement.ID)
	if err != nil {
		return core.Announcement{}, err
	}

	r.publishEvent(ctx, created)

	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Repository.Get")
	defer span.End()

	var announcement core.Announcement
	err := r.db.WithContext(ctx).First(&announcement, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.Announcement{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.Announcement{}, err
	}
	return announcement, nil
}

func (r *repository) ListActive(ctx context.Context, tenantID string, at time.Time) ([]core.Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Repository.ListActive")
	defer span.End()

	var announcements []core.Announcement
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND publish_date <= ? AND (expiry_date IS NULL OR expiry_date > ?)", tenantID, at, at).
		Order("publish_date DESC").
		Find(&announcements).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return announcements, nil
}

func (r *repository) CountActive(ctx context.Context, tenantID string, at time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "Announcement.Repository.CountActive")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&core.Announcement{}).
		Where("tenant_id = ? AND publish_date <= ? AND (expiry_date IS NULL OR expiry_date > ?)", tenantID, at, at).
		Count(&count).Error
	return count, err
}

func (r *repository) publishEvent(ctx context.Context, announcement core.Announcement) {
	ctx, span := tracer.Start(ctx, "Announcement.Repository.publishEvent")
	defer span.End()

	afterRow, err := json.Marshal(wireRow(announcement))
	if err != nil {
		span.RecordError(err)
		return
	}

	channel := core.Chan(TableName, TenantFilter(announcement.TenantID))
	event := core.Event{
		Channel: channel,
		Type:    core.EventInsert,
		Table:   TableName,
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
			slog.String("module", "announcement"),
		)
	}
}
