package core

const (
	RequesterIDCtxKey        = "al-requesterID"
	RequesterTenantCtxKey    = "al-requesterTenant"
	RequesterRoleCtxKey      = "al-requesterRole"
	RequesterHouseholdCtxKey = "al-requesterHousehold"
)

const (
	GuestStatusPending   = "pending"
	GuestStatusApproved  = "approved"
	GuestStatusAtGate    = "at_gate"
	GuestStatusDenied    = "denied"
	GuestStatusCompleted = "completed"
)

var guestTransitions = map[string][]string{
	GuestStatusPending:   {GuestStatusApproved, GuestStatusDenied},
	GuestStatusApproved:  {GuestStatusAtGate, GuestStatusDenied, GuestStatusCompleted},
	GuestStatusAtGate:    {GuestStatusCompleted, GuestStatusDenied},
	GuestStatusDenied:    {GuestStatusPending},
	GuestStatusCompleted: {},
}

// CanTransitionGuestStatus reports whether a guest status change is allowed.
// Transitions are one-directional except for re-opening from denied.
func CanTransitionGuestStatus(from, to string) bool {
	for _, next := range guestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GuestEditable reports whether the guest record may still be edited.
func GuestEditable(status string) bool {
	return status == GuestStatusPending
}

// GuestDeletable reports whether the guest record may be deleted.
func GuestDeletable(status string) bool {
	return status == GuestStatusPending || status == GuestStatusDenied
}

const (
	RoleResident = "resident"
	RoleAdmin    = "admin"
	RoleSecurity = "security"
)

const (
	NotificationGuestArrival    = "guest_arrival"
	NotificationGuestUpdate     = "guest_update"
	NotificationAnnouncementNew = "announcement_new"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
	PriorityLow      = "low"
)

const (
	MaxAdvanceDays  = 30
	MaxActiveGuests = 10
	DefaultPageSize = 10
	MaxPageSize     = 100
)
