//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/aldea-dev/aldea/core"
)

var tracer = otel.Tracer("auth")

const (
	refreshKeyPrefix = "session:refresh:"
	resetKeyPrefix   = "session:reset:"
)

// Repository is the auth repository interface
type Repository interface {
	CreateUser(ctx context.Context, user core.UserProfile) (core.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (core.UserProfile, error)
	GetUserByID(ctx context.Context, id string) (core.UserProfile, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	ListMemberships(ctx context.Context, userID string) ([]core.TenantMembership, error)
	GetMembership(ctx context.Context, userID, tenantID string) (core.TenantMembership, error)

	StoreRefreshToken(ctx context.Context, token string, state RefreshState, ttl time.Duration) error
	ResolveRefreshToken(ctx context.Context, token string) (RefreshState, error)
	RevokeRefreshToken(ctx context.Context, token string) error

	StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

type repository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewRepository creates a new auth repository
func NewRepository(db *gorm.DB, rdb *redis.Client) Repository {
	return &repository{db: db, rdb: rdb}
}

func (r *repository) CreateUser(ctx context.Context, user core.UserProfile) (core.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.CreateUser")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&user).Error
	if err != nil {
		if err == gorm.ErrDuplicatedKey {
			return core.UserProfile{}, core.NewErrorAlreadyExists()
		}
		span.RecordError(err)
		return core.UserProfile{}, err
	}
	return user, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (core.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.GetUserByEmail")
	defer span.End()

	var user core.UserProfile
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.UserProfile{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.UserProfile{}, err
	}
	return user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (core.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.GetUserByID")
	defer span.End()

	var user core.UserProfile
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return core.UserProfile{}, core.NewErrorNotFound()
		}
		span.RecordError(err)
		return core.UserProfile{}, err
	}
	return user, nil
}

func (r *repository) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	ctx, span := tracer.Start(ctx, "Auth.Repository.UpdateUserPassword")
	defer span.End()

	result := r.db.WithContext(ctx).
		Model(&core.UserProfile{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		span.RecordError(result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.NewErrorNotFound()
	}
	return nil
}

func (r *repository) ListMemberships(ctx context.Context, userID string) ([]core.TenantMembership, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.ListMemberships")
	defer span.End()

	var memberships []core.TenantMembership
	err := r.db.WithContext(ctx).
		Table("tenant_users").
		Select("tenant_users.tenant_id, tenants.name AS tenant_name, tenant_users.role_code, tenant_users.household_id, tenant_users.is_active").
		Joins("JOIN tenants ON tenants.id = tenant_users.tenant_id").
		Where("tenant_users.user_profile_id = ?", userID).
		Scan(&memberships).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return memberships, nil
}

func (r *repository) GetMembership(ctx context.Context, userID, tenantID string) (core.TenantMembership, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.GetMembership")
	defer span.End()

	memberships, err := r.ListMemberships(ctx, userID)
	if err != nil {
		return core.TenantMembership{}, err
	}
	for _, membership := range memberships {
		if membership.TenantID == tenantID {
			return membership, nil
		}
	}
	return core.TenantMembership{}, core.NewErrorNotFound()
}

func (r *repository) StoreRefreshToken(ctx context.Context, token string, state RefreshState, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Auth.Repository.StoreRefreshToken")
	defer span.End()

	payload, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return r.rdb.Set(ctx, refreshKeyPrefix+token, payload, ttl).Err()
}

func (r *repository) ResolveRefreshToken(ctx context.Context, token string) (RefreshState, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.ResolveRefreshToken")
	defer span.End()

	payload, err := r.rdb.Get(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return RefreshState{}, core.NewErrorUnauthorized()
		}
		span.RecordError(err)
		return RefreshState{}, err
	}

	var state RefreshState
	err = json.Unmarshal([]byte(payload), &state)
	if err != nil {
		span.RecordError(err)
		return RefreshState{}, err
	}
	return state, nil
}

func (r *repository) RevokeRefreshToken(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "Auth.Repository.RevokeRefreshToken")
	defer span.End()

	// Del is a no-op for already-expired tokens, which is fine: logout
	// must be idempotent.
	return r.rdb.Del(ctx, refreshKeyPrefix+token).Err()
}

func (r *repository) StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Auth.Repository.StoreResetToken")
	defer span.End()

	return r.rdb.Set(ctx, resetKeyPrefix+token, userID, ttl).Err()
}

func (r *repository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Repository.ConsumeResetToken")
	defer span.End()

	userID, err := r.rdb.GetDel(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return "", core.NewErrorUnauthorized()
		}
		span.RecordError(err)
		return "", err
	}
	return userID, nil
}
