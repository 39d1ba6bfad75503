package client

import (
	"log/slog"

	"github.com/aldea-dev/aldea/core"
)

// Reconciler folds change events into a store. The filter predicate
// mirrors the server-side channel filter: events are re-validated on
// arrival, so a record updated out of the filtered set is evicted
// instead of lingering with stale field values.
type Reconciler[T Record] struct {
	store  *Store[T]
	decode func(map[string]any) (T, error)
	match  func(T) bool
}

// NewReconciler creates a reconciler. match may be nil for unfiltered
// channels.
func NewReconciler[T Record](store *Store[T], decode func(map[string]any) (T, error), match func(T) bool) *Reconciler[T] {
	return &Reconciler[T]{
		store:  store,
		decode: decode,
		match:  match,
	}
}

// Apply folds one event in. Reapplying the same event is harmless.
func (r *Reconciler[T]) Apply(event ChangeEvent) {
	if event.Type == core.EventDelete {
		r.store.Remove(event.Key)
		return
	}

	record, err := r.decode(event.Record)
	if err != nil {
		slog.Warn("dropping undecodable record",
			slog.String("error", err.Error()),
			slog.String("table", event.Table),
			slog.String("module", "client"),
		)
		return
	}

	if r.match != nil && !r.match(record) {
		// inserts outside the filter never belonged here; updates that
		// moved outside it take the record with them
		r.store.Remove(event.Key)
		return
	}

	r.store.Upsert(record)
}
