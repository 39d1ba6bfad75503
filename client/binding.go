package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aldea-dev/aldea/core"
)

// ListBinding keeps a store-backed list view current. Events flow
// through the reconciler and every accepted change re-renders via
// onChange with the full ordered snapshot.
type ListBinding[T Record] struct {
	store      *Store[T]
	reconciler *Reconciler[T]
	handle     *Handle
	onChange   func([]T)

	mutex  sync.Mutex
	closed bool
}

// BindList opens the channel and wires events into the store. onChange
// fires after every applied event; it never fires after Unbind.
func BindList[T Record](realtime *Realtime, descriptor Descriptor, store *Store[T], reconciler *Reconciler[T], onChange func([]T)) *ListBinding[T] {
	binding := &ListBinding[T]{
		store:      store,
		reconciler: reconciler,
		onChange:   onChange,
	}
	binding.handle = realtime.Open(descriptor, binding.apply)
	return binding
}

func (b *ListBinding[T]) apply(event ChangeEvent) {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return
	}
	b.reconciler.Apply(event)
	snapshot := b.store.List()
	b.mutex.Unlock()

	if b.onChange != nil {
		b.onChange(snapshot)
	}
}

// Refetch replaces the store content with the result of fetch, unless
// the store moved on while the fetch was in flight.
func (b *ListBinding[T]) Refetch(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	token := b.store.BeginFetch()
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	if !b.store.SetAll(token, items) {
		slog.Debug("dropping stale refetch result", slog.String("module", "client"))
		return nil
	}
	if b.onChange != nil {
		b.onChange(b.store.List())
	}
	return nil
}

// Unbind releases the subscription. Calling it again is a no-op.
func (b *ListBinding[T]) Unbind() {
	b.mutex.Lock()
	b.closed = true
	b.mutex.Unlock()
	b.handle.Close()
}

// DetailBinding watches one record. Updates trigger a refetch so the
// view always shows server truth rather than a patched-together row
// image; a delete fires onNavigateAway exactly once.
type DetailBinding[T Record] struct {
	key            string
	handle         *Handle
	refetch        func(context.Context) (T, error)
	onChange       func(T)
	onNavigateAway func()

	mutex    sync.Mutex
	closed   bool
	navigate sync.Once
}

// BindDetail opens the channel and watches the record with the given key.
func BindDetail[T Record](realtime *Realtime, descriptor Descriptor, key string, refetch func(context.Context) (T, error), onChange func(T), onNavigateAway func()) *DetailBinding[T] {
	binding := &DetailBinding[T]{
		key:            key,
		refetch:        refetch,
		onChange:       onChange,
		onNavigateAway: onNavigateAway,
	}
	binding.handle = realtime.Open(descriptor, binding.apply)
	return binding
}

func (b *DetailBinding[T]) apply(event ChangeEvent) {
	if event.Key != b.key {
		return
	}

	b.mutex.Lock()
	closed := b.closed
	b.mutex.Unlock()
	if closed {
		return
	}

	if event.Type == core.EventDelete {
		b.navigate.Do(func() {
			if b.onNavigateAway != nil {
				b.onNavigateAway()
			}
		})
		return
	}

	record, err := b.refetch(context.Background())
	if err != nil {
		slog.Warn("fail to refetch record after update",
			slog.String("error", err.Error()),
			slog.String("module", "client"),
		)
		return
	}

	b.mutex.Lock()
	closed = b.closed
	b.mutex.Unlock()
	if !closed && b.onChange != nil {
		b.onChange(record)
	}
}

// Unbind releases the subscription. Calling it again is a no-op.
func (b *DetailBinding[T]) Unbind() {
	b.mutex.Lock()
	b.closed = true
	b.mutex.Unlock()
	b.handle.Close()
}
