package core

import (
	"encoding/json"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is the change-feed packet model. Before/After carry wire-named
// (snake_case) row images; insert has After only, delete has Before only,
// update may carry both but only After is authoritative.
type Event struct {
	Channel string          `json:"channel"` // full channel name (ex: guests?household_id=<id>)
	Type    EventType       `json:"type"`
	Table   string          `json:"table"`
	Before  json.RawMessage `json:"before,omitempty"`
	After   json.RawMessage `json:"after,omitempty"`
}

// Chan derives the deterministic channel name for a (table, filter) pair,
// so identical descriptors collapse to the same logical channel.
func Chan(table string, filter string) string {
	if filter == "" {
		return table
	}
	return table + "?" + filter
}
