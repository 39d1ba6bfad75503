package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldea-dev/aldea/core"
)

func TestNormalizeInsert(t *testing.T) {
	after, _ := json.Marshal(map[string]any{
		"id":           "g1",
		"guest_name":   "Juan dela Cruz",
		"household_id": "h1",
		"status":       "pending",
		"internal_col": "should not leak",
	})

	event, err := Normalize(core.Event{
		Channel: "guests?household_id=eq.h1",
		Type:    core.EventInsert,
		Table:   "guests",
		After:   after,
	})
	assert.NoError(t, err)
	assert.Equal(t, "g1", event.Key)
	assert.Equal(t, "Juan dela Cruz", event.Record["guestName"])
	assert.Equal(t, "h1", event.Record["householdId"])

	// columns outside the fixed mapping are dropped
	_, leaked := event.Record["internal_col"]
	assert.False(t, leaked)
	_, leakedMapped := event.Record["internalCol"]
	assert.False(t, leakedMapped)
}

func TestNormalizeDeleteUsesBeforeImage(t *testing.T) {
	before, _ := json.Marshal(map[string]any{"id": "g1", "guest_name": "Juan"})

	event, err := Normalize(core.Event{
		Type:   core.EventDelete,
		Table:  "guests",
		Before: before,
	})
	assert.NoError(t, err)
	assert.Equal(t, "g1", event.Key)
	assert.Nil(t, event.Record)
}

func TestNormalizeRejectsMissingImages(t *testing.T) {
	_, err := Normalize(core.Event{Type: core.EventInsert, Table: "guests"})
	assert.Error(t, err)

	_, err = Normalize(core.Event{Type: core.EventUpdate, Table: "guests"})
	assert.Error(t, err)

	_, err = Normalize(core.Event{Type: core.EventDelete, Table: "guests"})
	assert.Error(t, err)
}

func TestNormalizeRejectsUnknownTable(t *testing.T) {
	after, _ := json.Marshal(map[string]any{"id": "x"})
	_, err := Normalize(core.Event{Type: core.EventInsert, Table: "mystery", After: after})
	assert.Error(t, err)
}

func TestNormalizeRejectsRowWithoutID(t *testing.T) {
	after, _ := json.Marshal(map[string]any{"guest_name": "Juan"})
	_, err := Normalize(core.Event{Type: core.EventInsert, Table: "guests", After: after})
	assert.Error(t, err)
}

func TestNormalizeWireDropsGarbage(t *testing.T) {
	_, ok := normalizeWire([]byte("not json"))
	assert.False(t, ok)

	_, ok = normalizeWire([]byte(`{"type":"insert","table":"guests"}`))
	assert.False(t, ok)
}
