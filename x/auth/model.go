package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token payload. Tenant scoping lives in the token so
// tenant switches reissue it.
type Claims struct {
	TenantID    string  `json:"tenant_id,omitempty"`
	RoleCode    string  `json:"role_code,omitempty"`
	HouseholdID *string `json:"household_id,omitempty"`
	jwt.RegisteredClaims
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type switchTenantRequest struct {
	TenantID string `json:"tenantId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordUpdateRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

// RefreshState is what a refresh token resolves to in redis.
type RefreshState struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId,omitempty"`
}
