//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package guest

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/aldea-dev/aldea/core"
)

var tracer = otel.Tracer("guest")

// Repository is the guest repository interface
type Repository interface {
	Create(ctx context.Context, guest core.Guest) (core.Guest, error)
	Get(ctx context.Context, id string) (core.Guest, error)
	Update(ctx context.Context, guest core.Guest) (core.Guest, error)
	Delete(ctx context.Context, guest core.Guest) error
	Query(ctx context.Context, tenantID, householdID string, query core.GuestQuery) ([]core.Guest, int64, error)
	CountActive(ctx context.Context, householdID string) (int64, error)
	Stats(ctx context.Context, tenantID, householdID string) (core.GuestStats, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db  *gorm.DB
	rdb *redis.Client
	mc  *memcache.Client
}

// NewRepository creates a new guest repository
func NewRepository(db *gorm.DB, rdb *redis.Client, mc *memcache.Client) Repository {
	return &repository{db: db, rdb: rdb, mc: mc}
}

type cachedPage struct {
	Items []core.Guest `json:"items"`
	Count int64        `json:"count"`
}

func pageCacheKey(householdID string) string {
	return "guest:page1:" + householdID
}

// isCacheable reports whether a query hits the hot path worth caching:
// the first unfiltered page of one household's list.
func isCacheable(householdID string, query core.GuestQuery) bool {
	return householdID != "" &&
		query.Page <= 1 &&
		query.Status == "" &&
		query.StartDate == "" &&
		query.EndDate == "" &&
		query.Search == ""
}

func (r *repository) Create(ctx context.Context, guest core.Guest) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Create")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&guest).Error
	if err != nil {
		span.RecordError(err)
		return core.Guest{}, err
	}

	created, err := r.Get(ctx, guest.ID)
	if err != nil {
		return core.Guest{}, err
	}

	r.invalidatePage(created.HouseholdID)
	r.publishEvent(ctx, core.EventInsert, nil, &created)

	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Get")
	defer span.End()

	var guest core.Guest
	err := r.db.WithContext(ctx).First(&guest, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.Guest{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.Guest{}, err
	}
	return guest, nil
}

func (r *repository) Update(ctx context.Context, guest core.Guest) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Update")
	defer span.End()

	before, err := r.Get(ctx, guest.ID)
	if err != nil {
		return core.Guest{}, err
	}

	err = r.db.WithContext(ctx).Save(&guest).Error
	if err != nil {
		span.RecordError(err)
		return core.Guest{}, err
	}

	after, err := r.Get(ctx, guest.ID)
	if err != nil {
		return core.Guest{}, err
	}

	r.invalidatePage(after.HouseholdID)
	r.publishEvent(ctx, core.EventUpdate, &before, &after)

	return after, nil
}

func (r *repository) Delete(ctx context.Context, guest core.Guest) error {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Delete")
	defer span.End()

	err := r.db.WithContext(ctx).Delete(&core.Guest{}, "id = ?", guest.ID).Error
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.invalidatePage(guest.HouseholdID)
	r.publishEvent(ctx, core.EventDelete, &guest, nil)

	return nil
}

func (r *repository) Query(ctx context.Context, tenantID, householdID string, query core.GuestQuery) ([]core.Guest, int64, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Query")
	defer span.End()

	span.SetAttributes(attribute.String("householdID", householdID))

	cacheable := isCacheable(householdID, query)
	if cacheable {
		if item, err := r.mc.Get(pageCacheKey(householdID)); err == nil {
			var page cachedPage
			if err := json.Unmarshal(item.Value, &page); err == nil && len(page.Items) <= query.PageSize {
				return page.Items, page.Count, nil
			}
		}
	}

	tx := r.db.WithContext(ctx).Model(&core.Guest{}).Where("tenant_id = ?", tenantID)
	if householdID != "" {
		tx = tx.Where("household_id = ?", householdID)
	}
	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if query.StartDate != "" {
		tx = tx.Where("visit_date_start >= ?", query.StartDate)
	}
	if query.EndDate != "" {
		tx = tx.Where("visit_date_start <= ?", query.EndDate)
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		tx = tx.Where("guest_name ILIKE ? OR phone ILIKE ? OR vehicle_plate ILIKE ?", pattern, pattern, pattern)
	}

	var count int64
	err := tx.Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	// 1-based page to zero-based row range
	offset := (query.Page - 1) * query.PageSize

	var guests []core.Guest
	err = tx.Order("created_at DESC").Offset(offset).Limit(query.PageSize).Find(&guests).Error
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	if cacheable {
		if value, err := json.Marshal(cachedPage{Items: guests, Count: count}); err == nil {
			r.mc.Set(&memcache.Item{Key: pageCacheKey(householdID), Value: value, Expiration: 60})
		}
	}

	return guests, count, nil
}

func (r *repository) CountActive(ctx context.Context, householdID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.CountActive")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&core.Guest{}).
		Where("household_id = ? AND status IN ?", householdID,
			[]string{core.GuestStatusPending, core.GuestStatusApproved, core.GuestStatusAtGate}).
		Count(&count).Error
	return count, err
}

func (r *repository) Stats(ctx context.Context, tenantID, householdID string) (core.GuestStats, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Stats")
	defer span.End()

	tx := r.db.WithContext(ctx).Model(&core.Guest{}).Where("tenant_id = ?", tenantID)
	if householdID != "" {
		tx = tx.Where("household_id = ?", householdID)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := tx.Select("status, count(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return core.GuestStats{}, err
	}

	var stats core.GuestStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case core.GuestStatusPending:
			stats.Pending = row.Count
		case core.GuestStatusApproved:
			stats.Approved = row.Count
		case core.GuestStatusAtGate:
			stats.AtGate = row.Count
		case core.GuestStatusDenied:
			stats.Denied = row.Count
		case core.GuestStatusCompleted:
			stats.Completed = row.Count
		}
	}
	return stats, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.Count")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Guest{}).Count(&count).Error
	return count, err
}

func (r *repository) invalidatePage(householdID string) {
	err := r.mc.Delete(pageCacheKey(householdID))
	if err != nil && err != memcache.ErrCacheMiss {
		slog.Warn("failed to invalidate guest page cache",
			slog.String("error", err.Error()),
			slog.String("module", "guest"),
		)
	}
}

// publishEvent fans the row change out to the unfiltered table channel and
// to the household-scoped channel. Publish failures are logged, never
// propagated: the write itself already committed.
func (r *repository) publishEvent(ctx context.Context, eventType core.EventType, before, after *core.Guest) {
	ctx, span := tracer.Start(ctx, "Guest.Repository.publishEvent")
	defer span.End()

	var beforeRow, afterRow json.RawMessage
	householdID := ""
	if before != nil {
		beforeRow, _ = json.Marshal(wireRow(*before))
		householdID = before.HouseholdID
	}
	if after != nil {
		afterRow, _ = json.Marshal(wireRow(*after))
		householdID = after.HouseholdID
	}

	channels := []string{
		core.Chan(TableName, ""),
		core.Chan(TableName, HouseholdFilter(householdID)),
	}

	for _, channel := range channels {
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
			continue
		}
		err = r.rdb.Publish(ctx, channel, payload).Err()
		if err != nil {
			span.RecordError(err)
			slog.ErrorContext(ctx, "fail to publish change event to Redis",
				slog.String("error", err.Error()),
				slog.String("module", "guest"),
			)
		}
	}
}
