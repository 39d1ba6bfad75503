package client

import (
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/aldea-dev/aldea/core"
)

// ChangeEvent is one normalized change-feed entry. Record fields use the
// API's camelCase names; Key is the primary key of the affected row.
type ChangeEvent struct {
	Channel string
	Table   string
	Type    core.EventType
	Key     string
	Record  map[string]any
}

// columnMaps fixes the snake_case to camelCase translation per table.
// Columns absent here never reach application code, so a server-side
// schema addition cannot leak surprise fields into clients.
var columnMaps = map[string]map[string]string{
	"guests": {
		"id":                    "id",
		"tenant_id":             "tenantId",
		"household_id":          "householdId",
		"guest_name":            "guestName",
		"phone":                 "phone",
		"vehicle_plate":         "vehiclePlate",
		"purpose":               "purpose",
		"visit_date_start":      "visitDateStart",
		"visit_date_end":        "visitDateEnd",
		"expected_arrival_time": "expectedArrivalTime",
		"special_instructions":  "specialInstructions",
		"status":                "status",
		"created_by":            "createdBy",
		"approved_by":           "approvedBy",
		"arrival_time":          "arrivalTime",
		"created_at":            "createdAt",
		"updated_at":            "updatedAt",
	},
	"notifications": {
		"id":                  "id",
		"tenant_id":           "tenantId",
		"user_id":             "userId",
		"type":                "type",
		"priority":            "priority",
		"title":               "title",
		"content":             "content",
		"related_entity_id":   "relatedEntityId",
		"related_entity_type": "relatedEntityType",
		"is_read":             "isRead",
		"created_at":          "createdAt",
	},
	"announcements": {
		"id":           "id",
		"tenant_id":    "tenantId",
		"type":         "type",
		"priority":     "priority",
		"title":        "title",
		"content":      "content",
		"attachments":  "attachments",
		"publish_date": "publishDate",
		"expiry_date":  "expiryDate",
		"published_by": "publishedBy",
		"created_at":   "createdAt",
		"updated_at":   "updatedAt",
	},
}

func normalizeRow(table string, raw json.RawMessage) (map[string]any, string, error) {
	columns, ok := columnMaps[table]
	if !ok {
		return nil, "", errors.Errorf("unknown table: %s", table)
	}

	var row map[string]any
	err := json.Unmarshal(raw, &row)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode row image")
	}

	record := make(map[string]any, len(row))
	for column, value := range row {
		if name, ok := columns[column]; ok {
			record[name] = value
		}
	}

	key, _ := record["id"].(string)
	if key == "" {
		return nil, "", errors.New("row image has no id")
	}

	return record, key, nil
}

// Normalize turns a raw wire event into a ChangeEvent. Malformed events
// return an error; the caller logs and drops them rather than letting one
// bad payload wedge the feed.
func Normalize(event core.Event) (ChangeEvent, error) {
	out := ChangeEvent{
		Channel: event.Channel,
		Table:   event.Table,
		Type:    event.Type,
	}

	switch event.Type {
	case core.EventInsert, core.EventUpdate:
		if event.After == nil {
			return ChangeEvent{}, errors.Errorf("%s event without after image", event.Type)
		}
		record, key, err := normalizeRow(event.Table, event.After)
		if err != nil {
			return ChangeEvent{}, err
		}
		out.Record = record
		out.Key = key
	case core.EventDelete:
		if event.Before == nil {
			return ChangeEvent{}, errors.New("delete event without before image")
		}
		_, key, err := normalizeRow(event.Table, event.Before)
		if err != nil {
			return ChangeEvent{}, err
		}
		out.Key = key
	default:
		return ChangeEvent{}, errors.Errorf("unknown event type: %s", event.Type)
	}

	return out, nil
}

func normalizeWire(payload []byte) (ChangeEvent, bool) {
	var event core.Event
	err := json.Unmarshal(payload, &event)
	if err != nil {
		slog.Warn("dropping undecodable change event",
			slog.String("error", err.Error()),
			slog.String("module", "client"),
		)
		return ChangeEvent{}, false
	}

	normalized, err := Normalize(event)
	if err != nil {
		slog.Warn("dropping malformed change event",
			slog.String("error", err.Error()),
			slog.String("table", event.Table),
			slog.String("module", "client"),
		)
		return ChangeEvent{}, false
	}
	return normalized, true
}
