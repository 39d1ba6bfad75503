package guest

import (
	"time"

	"github.com/aldea-dev/aldea/core"
)

const (
	// TableName is the resource table announced on the change feed.
	TableName = "guests"

	dateFormat = "2006-01-02"
)

type statusRequest struct {
	Status string `json:"status"`
}

// HouseholdFilter is the change-feed filter expression scoping a channel
// to one household's guests.
func HouseholdFilter(householdID string) string {
	return "household_id=eq." + householdID
}

// wireRow is the snake_case row image carried on the change feed. The
// field set is fixed; anything else never leaves the server.
func wireRow(g core.Guest) map[string]any {
	row := map[string]any{
		"id":               g.ID,
		"tenant_id":        g.TenantID,
		"household_id":     g.HouseholdID,
		"guest_name":       g.GuestName,
		"phone":            g.Phone,
		"vehicle_plate":    g.VehiclePlate,
		"purpose":          g.Purpose,
		"visit_date_start": g.VisitDateStart.Format(dateFormat),
		"visit_date_end":   g.VisitDateEnd.Format(dateFormat),
		"status":           g.Status,
		"created_by":       g.CreatedBy,
		"approved_by":      g.ApprovedBy,
		"created_at":       g.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":       g.UpdatedAt.Format(time.RFC3339Nano),
	}
	if g.ExpectedArrivalTime != nil {
		row["expected_arrival_time"] = *g.ExpectedArrivalTime
	}
	if g.SpecialInstructions != nil {
		row["special_instructions"] = *g.SpecialInstructions
	}
	if g.ArrivalTime != nil {
		row["arrival_time"] = g.ArrivalTime.Format(time.RFC3339Nano)
	}
	return row
}
