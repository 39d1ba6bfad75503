package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldea-dev/aldea/core"
)

const (
	resetTokenTTL     = time.Hour
	minPasswordLength = 8
)

type service struct {
	repository Repository
	config     core.Config
}

// NewService creates a new auth service
func NewService(repository Repository, config core.Config) core.AuthService {
	return &service{
		repository: repository,
		config:     config,
	}
}

// Register creates a new portal account.
func (s *service) Register(ctx context.Context, email, password, firstName, lastName string) (core.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Register")
	defer span.End()

	if _, err := mail.ParseAddress(email); err != nil {
		return core.UserProfile{}, core.NewValidationError(core.FieldError{Field: "email", Message: "invalid email address"})
	}
	if len(password) < minPasswordLength {
		return core.UserProfile{}, core.NewValidationError(core.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return core.UserProfile{}, errors.Wrap(err, "failed to hash password")
	}

	user := core.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}

	return s.repository.CreateUser(ctx, user)
}

// Login authenticates an account and scopes the session to its tenant when
// the account belongs to exactly one.
func (s *service) Login(ctx context.Context, email, password string) (core.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		// same error for wrong email and wrong password
		return core.LoginResult{}, core.NewErrorUnauthorized()
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return core.LoginResult{}, core.NewErrorUnauthorized()
	}

	memberships, err := s.repository.ListMemberships(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return core.LoginResult{}, errors.Wrap(err, "failed to list memberships")
	}

	result := core.LoginResult{
		User:    user,
		Tenants: memberships,
	}

	switch len(memberships) {
	case 0:
		session, err := s.issueSession(ctx, user.ID, nil)
		if err != nil {
			return core.LoginResult{}, err
		}
		result.Session = session
	case 1:
		membership := memberships[0]
		session, err := s.issueSession(ctx, user.ID, &membership)
		if err != nil {
			return core.LoginResult{}, err
		}
		result.Session = session
		result.ActiveTenant = &membership
	default:
		session, err := s.issueSession(ctx, user.ID, nil)
		if err != nil {
			return core.LoginResult{}, err
		}
		result.Session = session
		result.RequiresTenantSelection = true
	}

	return result, nil
}

// SwitchTenant reissues the session with tenant and role claims.
func (s *service) SwitchTenant(ctx context.Context, userID, tenantID string) (core.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.SwitchTenant")
	defer span.End()

	membership, err := s.repository.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return core.Session{}, core.NewErrorPermissionDenied()
	}
	if !membership.IsActive {
		return core.Session{}, core.NewErrorPermissionDenied()
	}

	return s.issueSession(ctx, userID, &membership)
}

// Refresh rotates the refresh token and issues a new access token.
func (s *service) Refresh(ctx context.Context, refreshToken string) (core.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Refresh")
	defer span.End()

	state, err := s.repository.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		return core.Session{}, err
	}

	err = s.repository.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		return core.Session{}, errors.Wrap(err, "failed to rotate refresh token")
	}

	var membership *core.TenantMembership
	if state.TenantID != "" {
		m, err := s.repository.GetMembership(ctx, state.UserID, state.TenantID)
		if err != nil {
			return core.Session{}, core.NewErrorUnauthorized()
		}
		membership = &m
	}

	return s.issueSession(ctx, state.UserID, membership)
}

// Logout revokes the refresh token. Safe to call with an already-revoked
// or expired token.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := tracer.Start(ctx, "Auth.Service.Logout")
	defer span.End()

	return s.repository.RevokeRefreshToken(ctx, refreshToken)
}

// RequestPasswordReset issues a one-time reset token. Delivery is handled
// out of process; unknown addresses are not distinguishable to the caller.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Auth.Service.RequestPasswordReset")
	defer span.End()

	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		slog.InfoContext(ctx, "password reset requested for unknown address",
			slog.String("module", "auth"),
		)
		return nil
	}

	token := uuid.NewString()
	err = s.repository.StoreResetToken(ctx, token, user.ID, resetTokenTTL)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to store reset token")
	}

	slog.InfoContext(ctx,
		fmt.Sprintf("password reset token issued for %s", user.ID),
		slog.String("module", "auth"),
	)

	return nil
}

// UpdatePassword consumes a reset token and replaces the password.
func (s *service) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	ctx, span := tracer.Start(ctx, "Auth.Service.UpdatePassword")
	defer span.End()

	if len(newPassword) < minPasswordLength {
		return core.NewValidationError(core.FieldError{Field: "newPassword", Message: "password must be at least 8 characters"})
	}

	userID, err := s.repository.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to hash password")
	}

	return s.repository.UpdateUserPassword(ctx, userID, string(hash))
}

func (s *service) GetUser(ctx context.Context, userID string) (core.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.GetUser")
	defer span.End()

	return s.repository.GetUserByID(ctx, userID)
}

func (s *service) issueSession(ctx context.Context, userID string, membership *core.TenantMembership) (core.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.issueSession")
	defer span.End()

	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.SiteName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	state := RefreshState{UserID: userID}
	if membership != nil {
		claims.TenantID = membership.TenantID
		claims.RoleCode = membership.RoleCode
		claims.HouseholdID = membership.HouseholdID
		state.TenantID = membership.TenantID
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.AccessSecret))
	if err != nil {
		span.RecordError(err)
		return core.Session{}, errors.Wrap(err, "failed to sign access token")
	}

	refreshToken := uuid.NewString()
	err = s.repository.StoreRefreshToken(ctx, refreshToken, state, s.config.RefreshTokenTTL)
	if err != nil {
		span.RecordError(err)
		return core.Session{}, errors.Wrap(err, "failed to store refresh token")
	}

	return core.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
