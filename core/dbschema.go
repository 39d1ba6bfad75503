package core

import (
	"time"

	"github.com/lib/pq"
)

// Tenant is one managed village/community.
type Tenant struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"type:text;uniqueIndex"`
	Status    string    `json:"status" gorm:"type:text;default:'active'"`
	CreatedAt time.Time `json:"createdAt" gorm:"->;<-:create;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// UserProfile is a portal account.
// mutable
type UserProfile struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string    `json:"email" gorm:"type:text;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:text"`
	FirstName    string    `json:"firstName" gorm:"type:text"`
	LastName     string    `json:"lastName" gorm:"type:text"`
	AvatarURL    *string   `json:"avatarUrl" gorm:"type:text;default:null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"->;<-:create;autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TenantUser links an account to a tenant with a role.
type TenantUser struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserProfileID string    `json:"userProfileId" gorm:"type:uuid;index;uniqueIndex:uniq_tenant_user"`
	TenantID      string    `json:"tenantId" gorm:"type:uuid;uniqueIndex:uniq_tenant_user"`
	RoleCode      string    `json:"roleCode" gorm:"type:text;default:'resident'"`
	HouseholdID   *string   `json:"householdId" gorm:"type:uuid;default:null"`
	IsActive      bool      `json:"isActive" gorm:"type:boolean;default:true"`
	JoinedAt      time.Time `json:"joinedAt" gorm:"->;<-:create;autoCreateTime"`
}

// Household is one residence inside a tenant.
type Household struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	TenantID     string    `json:"tenantId" gorm:"type:uuid;index"`
	Address      string    `json:"address" gorm:"type:text"`
	Block        *string   `json:"block" gorm:"type:text;default:null"`
	Lot          *string   `json:"lot" gorm:"type:text;default:null"`
	Alias        *string   `json:"alias" gorm:"type:text;default:null"`
	StickerQuota int       `json:"stickerQuota" gorm:"type:integer;default:3"`
	Status       string    `json:"status" gorm:"type:text;default:'active'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"->;<-:create;autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Guest is one guest pre-authorization.
// mutable while pending; deletable while pending or denied
type Guest struct {
	ID                  string     `json:"id" gorm:"primaryKey;type:char(20)"`
	TenantID            string     `json:"tenantId" gorm:"type:uuid;index"`
	HouseholdID         string     `json:"householdId" gorm:"type:uuid;index"`
	GuestName           string     `json:"guestName" gorm:"type:text"`
	Phone               *string    `json:"phone" gorm:"type:text;default:null"`
	VehiclePlate        *string    `json:"vehiclePlate" gorm:"type:text;default:null"`
	Purpose             string     `json:"purpose" gorm:"type:text"`
	VisitDateStart      time.Time  `json:"visitDateStart" gorm:"type:date"`
	VisitDateEnd        time.Time  `json:"visitDateEnd" gorm:"type:date"`
	ExpectedArrivalTime *string    `json:"expectedArrivalTime" gorm:"type:text;default:null"`
	SpecialInstructions *string    `json:"specialInstructions" gorm:"type:text;default:null"`
	Status              string     `json:"status" gorm:"type:text;default:'pending';index"`
	CreatedBy           string     `json:"createdBy" gorm:"type:uuid"`
	ApprovedBy          *string    `json:"approvedBy" gorm:"type:uuid;default:null"`
	ArrivalTime         *time.Time `json:"arrivalTime" gorm:"type:timestamp with time zone;default:null"`
	CreatedAt           time.Time  `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
	UpdatedAt           time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Notification is a per-user inbox entry, fed over the change feed.
type Notification struct {
	ID                string    `json:"id" gorm:"primaryKey;type:char(20)"`
	TenantID          string    `json:"tenantId" gorm:"type:uuid;index"`
	UserID            string    `json:"userId" gorm:"type:uuid;index"`
	Type              string    `json:"type" gorm:"type:text"`
	Priority          string    `json:"priority" gorm:"type:text;default:'normal'"`
	Title             string    `json:"title" gorm:"type:text"`
	Content           string    `json:"content" gorm:"type:text"`
	RelatedEntityID   *string   `json:"relatedEntityId" gorm:"type:text;default:null"`
	RelatedEntityType *string   `json:"relatedEntityType" gorm:"type:text;default:null"`
	IsRead            bool      `json:"isRead" gorm:"type:boolean;default:false"`
	CreatedAt         time.Time `json:"createdAt" gorm:"->;<-:create;autoCreateTime;index"`
}

// Announcement is a tenant-wide notice with a publish/expiry window.
type Announcement struct {
	ID          string         `json:"id" gorm:"primaryKey;type:char(20)"`
	TenantID    string         `json:"tenantId" gorm:"type:uuid;index"`
	Type        string         `json:"type" gorm:"type:text;default:'general'"`
	Priority    string         `json:"priority" gorm:"type:text;default:'normal'"`
	Title       string         `json:"title" gorm:"type:text"`
	Content     string         `json:"content" gorm:"type:text"`
	Attachments pq.StringArray `json:"attachments" gorm:"type:text[]"`
	PublishDate time.Time      `json:"publishDate" gorm:"type:timestamp with time zone"`
	ExpiryDate  *time.Time     `json:"expiryDate" gorm:"type:timestamp with time zone;default:null"`
	PublishedBy string         `json:"publishedBy" gorm:"type:uuid"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"->;<-:create;autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}
