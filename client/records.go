package client

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Client-side record shapes. Date and timestamp fields stay strings:
// the change feed carries plain dates while REST responses carry
// RFC3339, and views format them anyway.

// Guest is one guest pre-authorization as seen by a client.
type Guest struct {
	ID                  string   `json:"id"`
	TenantID            string   `json:"tenantId"`
	HouseholdID         string   `json:"householdId"`
	GuestName           string   `json:"guestName"`
	Phone               *string  `json:"phone"`
	VehiclePlate        *string  `json:"vehiclePlate"`
	Purpose             string   `json:"purpose"`
	VisitDateStart      string   `json:"visitDateStart"`
	VisitDateEnd        string   `json:"visitDateEnd"`
	ExpectedArrivalTime *string  `json:"expectedArrivalTime"`
	SpecialInstructions *string  `json:"specialInstructions"`
	Status              string   `json:"status"`
	CreatedBy           string   `json:"createdBy"`
	ApprovedBy          *string  `json:"approvedBy"`
	ArrivalTime         *string  `json:"arrivalTime"`
	CreatedAt           string   `json:"createdAt"`
	UpdatedAt           string   `json:"updatedAt"`
}

func (g Guest) Key() string {
	return g.ID
}

// Notification is one inbox entry as seen by a client.
type Notification struct {
	ID                string  `json:"id"`
	TenantID          string  `json:"tenantId"`
	UserID            string  `json:"userId"`
	Type              string  `json:"type"`
	Priority          string  `json:"priority"`
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	RelatedEntityID   *string `json:"relatedEntityId"`
	RelatedEntityType *string `json:"relatedEntityType"`
	IsRead            bool    `json:"isRead"`
	CreatedAt         string  `json:"createdAt"`
}

func (n Notification) Key() string {
	return n.ID
}

// Announcement is one tenant notice as seen by a client.
type Announcement struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenantId"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
	PublishDate string   `json:"publishDate"`
	ExpiryDate  *string  `json:"expiryDate"`
	PublishedBy string   `json:"publishedBy"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func (a Announcement) Key() string {
	return a.ID
}

// DecodeRecord rebuilds a typed record from a normalized event record.
func DecodeRecord[T any](record map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(record)
	if err != nil {
		return out, errors.Wrap(err, "failed to encode record")
	}
	err = json.Unmarshal(raw, &out)
	if err != nil {
		return out, errors.Wrap(err, "failed to decode record")
	}
	return out, nil
}
