package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
	mock_auth "github.com/aldea-dev/aldea/x/auth/mock"
)

var testConfig = core.Config{
	SiteName:        "aldea-test",
	AccessSecret:    "unittest-secret",
	AccessTokenTTL:  time.Minute * 15,
	RefreshTokenTTL: time.Hour * 24,
}

func hashOf(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func membership(tenantID, role string, active bool) core.TenantMembership {
	return core.TenantMembership{
		TenantID:   tenantID,
		TenantName: "Test Village",
		RoleCode:   role,
		IsActive:   active,
	}
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	service := auth.NewService(mockRepo, testConfig)

	_, err := service.Register(context.Background(), "not-an-email", "longenough", "Ana", "Reyes")
	assert.Error(t, err)

	var verr core.ValidationError
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "email", verr.Fields[0].Field)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	service := auth.NewService(mockRepo, testConfig)

	_, err := service.Register(context.Background(), "ana@example.com", "short", "Ana", "Reyes")
	assert.Error(t, err)

	var verr core.ValidationError
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "password", verr.Fields[0].Field)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, user core.UserProfile) (core.UserProfile, error) {
			assert.NotEmpty(t, user.ID)
			assert.NotEqual(t, "correcthorse", user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correcthorse")))
			return user, nil
		})

	service := auth.NewService(mockRepo, testConfig)

	user, err := service.Register(context.Background(), "ana@example.com", "correcthorse", "Ana", "Reyes")
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "ana@example.com").
		Return(core.UserProfile{ID: "user0", Email: "ana@example.com", PasswordHash: hashOf("correcthorse")}, nil)

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.Login(context.Background(), "ana@example.com", "wrongpassword")
	assert.Error(t, err)
	assert.ErrorIs(t, err, core.ErrorUnauthorized{})
}

func TestLoginUnknownEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "nobody@example.com").
		Return(core.UserProfile{}, core.NewErrorNotFound())

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.Login(context.Background(), "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, core.ErrorUnauthorized{})
}

func TestLoginSingleTenantScopesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "ana@example.com").
		Return(core.UserProfile{ID: "user0", Email: "ana@example.com", PasswordHash: hashOf("correcthorse")}, nil)
	mockRepo.EXPECT().
		ListMemberships(gomock.Any(), "user0").
		Return([]core.TenantMembership{membership("tenant0", core.RoleResident, true)}, nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), testConfig.RefreshTokenTTL).
		DoAndReturn(func(ctx context.Context, token string, state auth.RefreshState, ttl time.Duration) error {
			assert.Equal(t, "user0", state.UserID)
			assert.Equal(t, "tenant0", state.TenantID)
			return nil
		})

	service := auth.NewService(mockRepo, testConfig)

	result, err := service.Login(context.Background(), "ana@example.com", "correcthorse")
	assert.NoError(t, err)
	assert.False(t, result.RequiresTenantSelection)
	if assert.NotNil(t, result.ActiveTenant) {
		assert.Equal(t, "tenant0", result.ActiveTenant.TenantID)
	}
	assert.NotEmpty(t, result.Session.AccessToken)
	assert.NotEmpty(t, result.Session.RefreshToken)
}

func TestLoginMultipleTenantsRequiresSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "ana@example.com").
		Return(core.UserProfile{ID: "user0", PasswordHash: hashOf("correcthorse")}, nil)
	mockRepo.EXPECT().
		ListMemberships(gomock.Any(), "user0").
		Return([]core.TenantMembership{
			membership("tenant0", core.RoleResident, true),
			membership("tenant1", core.RoleAdmin, true),
		}, nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, token string, state auth.RefreshState, ttl time.Duration) error {
			// no tenant until the client picks one
			assert.Equal(t, "", state.TenantID)
			return nil
		})

	service := auth.NewService(mockRepo, testConfig)

	result, err := service.Login(context.Background(), "ana@example.com", "correcthorse")
	assert.NoError(t, err)
	assert.True(t, result.RequiresTenantSelection)
	assert.Nil(t, result.ActiveTenant)
	assert.Len(t, result.Tenants, 2)
}

func TestLoginNoTenants(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "ana@example.com").
		Return(core.UserProfile{ID: "user0", PasswordHash: hashOf("correcthorse")}, nil)
	mockRepo.EXPECT().
		ListMemberships(gomock.Any(), "user0").
		Return([]core.TenantMembership{}, nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	service := auth.NewService(mockRepo, testConfig)

	result, err := service.Login(context.Background(), "ana@example.com", "correcthorse")
	assert.NoError(t, err)
	assert.False(t, result.RequiresTenantSelection)
	assert.Nil(t, result.ActiveTenant)
	assert.Empty(t, result.Tenants)
	assert.NotEmpty(t, result.Session.AccessToken)
}

func TestSwitchTenantInactiveMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetMembership(gomock.Any(), "user0", "tenant0").
		Return(membership("tenant0", core.RoleResident, false), nil)

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.SwitchTenant(context.Background(), "user0", "tenant0")
	assert.ErrorIs(t, err, core.ErrorPermissionDenied{})
}

func TestSwitchTenantNotAMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetMembership(gomock.Any(), "user0", "tenant9").
		Return(core.TenantMembership{}, core.NewErrorNotFound())

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.SwitchTenant(context.Background(), "user0", "tenant9")
	assert.ErrorIs(t, err, core.ErrorPermissionDenied{})
}

func TestSwitchTenantIssuesScopedSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetMembership(gomock.Any(), "user0", "tenant0").
		Return(membership("tenant0", core.RoleAdmin, true), nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, token string, state auth.RefreshState, ttl time.Duration) error {
			assert.Equal(t, "tenant0", state.TenantID)
			return nil
		})

	service := auth.NewService(mockRepo, testConfig)

	session, err := service.SwitchTenant(context.Background(), "user0", "tenant0")
	assert.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
}

func TestRefreshRotatesToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		ResolveRefreshToken(gomock.Any(), "old-token").
		Return(auth.RefreshState{UserID: "user0", TenantID: "tenant0"}, nil)
	mockRepo.EXPECT().
		RevokeRefreshToken(gomock.Any(), "old-token").
		Return(nil)
	mockRepo.EXPECT().
		GetMembership(gomock.Any(), "user0", "tenant0").
		Return(membership("tenant0", core.RoleResident, true), nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	service := auth.NewService(mockRepo, testConfig)

	session, err := service.Refresh(context.Background(), "old-token")
	assert.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEqual(t, "old-token", session.RefreshToken)
}

func TestRefreshRevokedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		ResolveRefreshToken(gomock.Any(), "stale-token").
		Return(auth.RefreshState{}, core.NewErrorUnauthorized())

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.Refresh(context.Background(), "stale-token")
	assert.ErrorIs(t, err, core.ErrorUnauthorized{})
}

func TestLogoutRevokes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		RevokeRefreshToken(gomock.Any(), "refresh0").
		Return(nil)

	service := auth.NewService(mockRepo, testConfig)

	err := service.Logout(context.Background(), "refresh0")
	assert.NoError(t, err)
}

func TestRequestPasswordResetUnknownAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "nobody@example.com").
		Return(core.UserProfile{}, core.NewErrorNotFound())

	service := auth.NewService(mockRepo, testConfig)

	// unknown addresses succeed so callers cannot probe for accounts
	err := service.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
}

func TestRequestPasswordResetStoresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetUserByEmail(gomock.Any(), "ana@example.com").
		Return(core.UserProfile{ID: "user0", Email: "ana@example.com"}, nil)
	mockRepo.EXPECT().
		StoreResetToken(gomock.Any(), gomock.Any(), "user0", time.Hour).
		Return(nil)

	service := auth.NewService(mockRepo, testConfig)

	err := service.RequestPasswordReset(context.Background(), "ana@example.com")
	assert.NoError(t, err)
}

func TestUpdatePasswordShortPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	service := auth.NewService(mockRepo, testConfig)

	err := service.UpdatePassword(context.Background(), "reset0", "short")
	assert.Error(t, err)

	var verr core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdatePasswordConsumesToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		ConsumeResetToken(gomock.Any(), "reset0").
		Return("user0", nil)
	mockRepo.EXPECT().
		UpdateUserPassword(gomock.Any(), "user0", gomock.Any()).
		DoAndReturn(func(ctx context.Context, userID, passwordHash string) error {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte("newpassword1")))
			return nil
		})

	service := auth.NewService(mockRepo, testConfig)

	err := service.UpdatePassword(context.Background(), "reset0", "newpassword1")
	assert.NoError(t, err)
}

func TestUpdatePasswordExpiredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		ConsumeResetToken(gomock.Any(), "expired0").
		Return("", core.NewErrorUnauthorized())

	service := auth.NewService(mockRepo, testConfig)

	err := service.UpdatePassword(context.Background(), "expired0", "newpassword1")
	assert.ErrorIs(t, err, core.ErrorUnauthorized{})
}

func TestIssueSessionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_auth.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		GetMembership(gomock.Any(), "user0", "tenant0").
		Return(membership("tenant0", core.RoleResident, true), nil)
	mockRepo.EXPECT().
		StoreRefreshToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	service := auth.NewService(mockRepo, testConfig)

	_, err := service.SwitchTenant(context.Background(), "user0", "tenant0")
	assert.Error(t, err)
}
