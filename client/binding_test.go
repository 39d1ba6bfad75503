package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldea-dev/aldea/core"
)

func TestRealtimeRefcounting(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)

	descriptor := Descriptor{Table: "guests", Filter: "household_id=eq.h1"}
	h1 := realtime.Open(descriptor, func(ChangeEvent) {})
	h2 := realtime.Open(descriptor, func(ChangeEvent) {})

	channel := descriptor.Channel()
	assert.Equal(t, 2, realtime.refs[channel])

	h1.Close()
	h1.Close() // second close is a no-op
	assert.Equal(t, 1, realtime.refs[channel])

	h2.Close()
	_, ok := realtime.refs[channel]
	assert.False(t, ok)
}

func TestRealtimeDispatchesByChannel(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)

	var got []string
	handle := realtime.Open(Descriptor{Table: "guests", Filter: "household_id=eq.h1"}, func(ev ChangeEvent) {
		got = append(got, ev.Key)
	})
	defer handle.Close()

	realtime.dispatch(ChangeEvent{Channel: "guests?household_id=eq.h1", Key: "mine"})
	realtime.dispatch(ChangeEvent{Channel: "guests?household_id=eq.h2", Key: "not mine"})
	realtime.dispatch(ChangeEvent{Channel: "guests", Key: "unfiltered"})

	assert.Equal(t, []string{"mine"}, got)
}

func TestBindListAppliesAndRenders(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	var renders [][]rec
	binding := BindList(realtime, Descriptor{Table: "guests"}, store, reconciler, func(items []rec) {
		renders = append(renders, items)
	})
	defer binding.Unbind()

	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventInsert, Key: "a", Record: map[string]any{"ID": "a"}})

	assert.Len(t, renders, 1)
	assert.Equal(t, 1, store.Len())
}

func TestBindListUnbindSilence(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	calls := 0
	binding := BindList(realtime, Descriptor{Table: "guests"}, store, reconciler, func([]rec) {
		calls++
	})

	binding.Unbind()
	binding.Unbind() // idempotent

	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventInsert, Key: "a", Record: map[string]any{"ID": "a"}})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, store.Len())
}

func TestBindListRefetchDiscardsStaleResult(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)
	store := NewStore[rec]()
	reconciler := NewReconciler(store, decodeRec, nil)

	binding := BindList(realtime, Descriptor{Table: "guests"}, store, reconciler, nil)
	defer binding.Unbind()

	err := binding.Refetch(context.Background(), func(ctx context.Context) ([]rec, error) {
		// an event lands while the fetch is in flight
		realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventInsert, Key: "live", Record: map[string]any{"ID": "live"}})
		return []rec{{ID: "fetched"}}, nil
	})
	assert.NoError(t, err)

	// the overtaken fetch result was dropped
	_, ok := store.Get("fetched")
	assert.False(t, ok)
	_, ok = store.Get("live")
	assert.True(t, ok)
}

func TestBindDetailRefetchesOnUpdate(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)

	fetches := 0
	var shown []rec
	binding := BindDetail(realtime, Descriptor{Table: "guests"}, "g1",
		func(ctx context.Context) (rec, error) {
			fetches++
			return rec{ID: "g1", Value: "fresh"}, nil
		},
		func(r rec) { shown = append(shown, r) },
		nil,
	)
	defer binding.Unbind()

	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventUpdate, Key: "g1", Record: map[string]any{"ID": "g1"}})
	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventUpdate, Key: "other", Record: map[string]any{"ID": "other"}})

	assert.Equal(t, 1, fetches)
	if assert.Len(t, shown, 1) {
		assert.Equal(t, "fresh", shown[0].Value)
	}
}

func TestBindDetailNavigateAwayExactlyOnce(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)

	navigations := 0
	binding := BindDetail(realtime, Descriptor{Table: "guests"}, "g1",
		func(ctx context.Context) (rec, error) { return rec{ID: "g1"}, nil },
		nil,
		func() { navigations++ },
	)
	defer binding.Unbind()

	deleteEvent := ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventDelete, Key: "g1"}
	realtime.dispatch(deleteEvent)
	realtime.dispatch(deleteEvent)

	assert.Equal(t, 1, navigations)
}

func TestBindDetailSilentAfterUnbind(t *testing.T) {
	realtime := NewRealtime("ws://localhost/api/v1/socket", nil)

	navigations := 0
	changes := 0
	binding := BindDetail(realtime, Descriptor{Table: "guests"}, "g1",
		func(ctx context.Context) (rec, error) { return rec{ID: "g1"}, nil },
		func(rec) { changes++ },
		func() { navigations++ },
	)

	binding.Unbind()

	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventUpdate, Key: "g1", Record: map[string]any{"ID": "g1"}})
	realtime.dispatch(ChangeEvent{Channel: "guests", Table: "guests", Type: core.EventDelete, Key: "g1"})

	assert.Equal(t, 0, changes)
	assert.Equal(t, 0, navigations)
}
