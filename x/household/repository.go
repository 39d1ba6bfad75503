//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package household

import (
	"context"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/aldea-dev/aldea/core"
)

var tracer = otel.Tracer("household")

// Repository is the household repository interface
type Repository interface {
	Get(ctx context.Context, id string) (core.Household, error)
	GetByTenantUser(ctx context.Context, userID, tenantID string) (core.Household, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new household repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id string) (core.Household, error) {
	ctx, span := tracer.Start(ctx, "Household.Repository.Get")
	defer span.End()

	var household core.Household
	err := r.db.WithContext(ctx).First(&household, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.Household{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.Household{}, err
	}
	return household, nil
}

func (r *repository) GetByTenantUser(ctx context.Context, userID, tenantID string) (core.Household, error) {
	ctx, span := tracer.Start(ctx, "Household.Repository.GetByTenantUser")
	defer span.End()

	var membership core.TenantUser
	err := r.db.WithContext(ctx).
		First(&membership, "user_profile_id = ? AND tenant_id = ?", userID, tenantID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.Household{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.Household{}, err
	}
	if membership.HouseholdID == nil {
		return core.Household{}, core.NewErrorNotFound()
	}

	return r.Get(ctx, *membership.HouseholdID)
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Household.Repository.Count")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Household{}).Count(&count).Error
	return count, err
}
