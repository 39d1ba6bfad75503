package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldea-dev/aldea/core"
)

func decodeRec(record map[string]any) (rec, error) {
	return DecodeRecord[rec](record)
}

func guestEvent(eventType core.EventType, key, value string) ChangeEvent {
	return ChangeEvent{
		Channel: "guests",
		Table:   "guests",
		Type:    eventType,
		Key:     key,
		Record:  map[string]any{"ID": key, "Value": value},
	}
}

func TestReconcilerInsert(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	reconciler.Apply(guestEvent(core.EventInsert, "a", "1"))

	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", got.Value)
}

func TestReconcilerUpdate(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	reconciler.Apply(guestEvent(core.EventInsert, "a", "1"))
	reconciler.Apply(guestEvent(core.EventUpdate, "a", "2"))

	got, _ := store.Get("a")
	assert.Equal(t, "2", got.Value)
	assert.Equal(t, 1, store.Len())
}

func TestReconcilerDelete(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	reconciler.Apply(guestEvent(core.EventInsert, "a", "1"))
	reconciler.Apply(ChangeEvent{Table: "guests", Type: core.EventDelete, Key: "a"})

	assert.Equal(t, 0, store.Len())

	// deleting again changes nothing
	reconciler.Apply(ChangeEvent{Table: "guests", Type: core.EventDelete, Key: "a"})
	assert.Equal(t, 0, store.Len())
}

func TestReconcilerIdempotent(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	event := guestEvent(core.EventInsert, "a", "1")
	reconciler.Apply(event)
	before := store.List()

	reconciler.Apply(event)
	assert.Equal(t, before, store.List())
}

func TestReconcilerIgnoresInsertOutsideFilter(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, func(r rec) bool {
		return r.Value == "keep"
	})

	reconciler.Apply(guestEvent(core.EventInsert, "a", "other"))

	assert.Equal(t, 0, store.Len())
}

func TestReconcilerEvictsUpdateLeavingFilter(t *testing.T) {
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, func(r rec) bool {
		return r.Value == "keep"
	})

	reconciler.Apply(guestEvent(core.EventInsert, "a", "keep"))
	assert.Equal(t, 1, store.Len())

	// the record no longer satisfies the channel filter; keeping it
	// around would show stale membership
	reconciler.Apply(guestEvent(core.EventUpdate, "a", "other"))
	assert.Equal(t, 0, store.Len())
}
