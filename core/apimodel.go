package core

import (
	"time"
)

// Requester identifies the authenticated caller for service-layer scoping.
type Requester struct {
	UserID      string
	TenantID    string
	RoleCode    string
	HouseholdID *string
}

// Session is the token pair handed to a signed-in client.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// TenantMembership is one tenant a user belongs to.
type TenantMembership struct {
	TenantID    string  `json:"tenantId"`
	TenantName  string  `json:"tenantName"`
	RoleCode    string  `json:"roleCode"`
	HouseholdID *string `json:"householdId"`
	IsActive    bool    `json:"isActive"`
}

// LoginResult is the sign-in response. With exactly one tenant the session
// is already scoped to it; with more the client has to pick one and call
// SwitchTenant before tenant-scoped endpoints become usable.
type LoginResult struct {
	User                    UserProfile        `json:"user"`
	Session                 Session            `json:"session"`
	Tenants                 []TenantMembership `json:"tenants"`
	ActiveTenant            *TenantMembership  `json:"activeTenant"`
	RequiresTenantSelection bool               `json:"requiresTenantSelection"`
}

// GuestDraft is the input for creating a guest pre-authorization.
// Dates are wire-format strings (2006-01-02) and validated before any
// database call.
type GuestDraft struct {
	GuestName           string `json:"guestName" validate:"required,max=100"`
	Phone               string `json:"phone" validate:"omitempty,phmobile"`
	VehiclePlate        string `json:"vehiclePlate" validate:"omitempty,plateno"`
	Purpose             string `json:"purpose" validate:"required,max=200"`
	VisitDateStart      string `json:"visitDateStart" validate:"required,datetime=2006-01-02"`
	VisitDateEnd        string `json:"visitDateEnd" validate:"required,datetime=2006-01-02"`
	ExpectedArrivalTime string `json:"expectedArrivalTime" validate:"omitempty"`
	SpecialInstructions string `json:"specialInstructions" validate:"omitempty,max=500"`
}

// GuestPatch is a partial update. Nil fields are left untouched.
type GuestPatch struct {
	GuestName           *string `json:"guestName" validate:"omitempty,max=100"`
	Phone               *string `json:"phone" validate:"omitempty,phmobile"`
	VehiclePlate        *string `json:"vehiclePlate" validate:"omitempty,plateno"`
	Purpose             *string `json:"purpose" validate:"omitempty,max=200"`
	VisitDateStart      *string `json:"visitDateStart" validate:"omitempty,datetime=2006-01-02"`
	VisitDateEnd        *string `json:"visitDateEnd" validate:"omitempty,datetime=2006-01-02"`
	ExpectedArrivalTime *string `json:"expectedArrivalTime"`
	SpecialInstructions *string `json:"specialInstructions" validate:"omitempty,max=500"`
}

// GuestQuery is the list filter. Page is 1-based.
type GuestQuery struct {
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Search    string `json:"search"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type GuestStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	AtGate    int64 `json:"atGate"`
	Denied    int64 `json:"denied"`
	Completed int64 `json:"completed"`
}

type DashboardStats struct {
	Guests              GuestStats `json:"guests"`
	UnreadNotifications int64      `json:"unreadNotifications"`
	ActiveAnnouncements int64      `json:"activeAnnouncements"`
}
