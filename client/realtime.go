package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/aldea-dev/aldea/core"
)

// Descriptor names a change-feed channel by what it carries rather than
// by its wire name. Identical descriptors collapse to one subscription.
type Descriptor struct {
	Table  string
	Filter string
}

// Channel is the wire name of the descriptor.
func (d Descriptor) Channel() string {
	return core.Chan(d.Table, d.Filter)
}

// Status is the connection state reported to the status callback.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusClosed       Status = "closed"
)

// Realtime multiplexes any number of channel subscriptions over one
// websocket. Subscriptions are reference counted: the first open of a
// channel sends a listen frame, the last close sends unlisten, and
// everything in between is purely local bookkeeping.
type Realtime struct {
	url      string
	dialer   *websocket.Dialer
	onStatus func(Status)

	mutex   sync.Mutex
	conn    *websocket.Conn
	refs    map[string]int
	handles map[string]map[*Handle]bool
	closed  bool
}

// NewRealtime creates a realtime multiplexer. onStatus may be nil.
func NewRealtime(url string, onStatus func(Status)) *Realtime {
	return &Realtime{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		onStatus: onStatus,
		refs:     make(map[string]int),
		handles:  make(map[string]map[*Handle]bool),
	}
}

// Handle is one subscription to a channel. Close is idempotent and a
// closed handle never receives another event.
type Handle struct {
	realtime   *Realtime
	descriptor Descriptor
	deliver    func(ChangeEvent)
	once       sync.Once
}

// Descriptor returns what the handle is subscribed to.
func (h *Handle) Descriptor() Descriptor {
	return h.descriptor
}

// Close releases the subscription. The last handle on a channel sends
// the unlisten frame.
func (h *Handle) Close() {
	h.once.Do(func() {
		h.realtime.release(h)
	})
}

// Connect dials the socket and starts the read loop. Channels opened
// before Connect are subscribed as part of the handshake.
func (r *Realtime) Connect(ctx context.Context) error {
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to dial realtime socket")
	}

	r.mutex.Lock()
	r.conn = conn
	channels := r.activeChannels()
	r.mutex.Unlock()

	if len(channels) > 0 {
		err = conn.WriteJSON(map[string]any{"type": "listen", "channels": channels})
		if err != nil {
			conn.Close()
			return errors.Wrap(err, "failed to subscribe")
		}
	}

	r.notify(StatusConnected)
	go r.readLoop(ctx)

	return nil
}

// Open subscribes to a channel and delivers its events to fn. The
// returned handle must be closed when the consumer goes away.
func (r *Realtime) Open(descriptor Descriptor, fn func(ChangeEvent)) *Handle {
	handle := &Handle{
		realtime:   r,
		descriptor: descriptor,
		deliver:    fn,
	}

	channel := descriptor.Channel()

	r.mutex.Lock()
	r.refs[channel]++
	first := r.refs[channel] == 1
	if r.handles[channel] == nil {
		r.handles[channel] = make(map[*Handle]bool)
	}
	r.handles[channel][handle] = true
	conn := r.conn
	r.mutex.Unlock()

	if first && conn != nil {
		err := r.send(map[string]any{"type": "listen", "channels": []string{channel}})
		if err != nil {
			slog.Warn("fail to send listen frame",
				slog.String("error", err.Error()),
				slog.String("module", "client"),
			)
		}
	}

	return handle
}

func (r *Realtime) release(handle *Handle) {
	channel := handle.descriptor.Channel()

	r.mutex.Lock()
	delete(r.handles[channel], handle)
	r.refs[channel]--
	last := r.refs[channel] == 0
	if last {
		delete(r.refs, channel)
		delete(r.handles, channel)
	}
	conn := r.conn
	r.mutex.Unlock()

	if last && conn != nil {
		err := r.send(map[string]any{"type": "unlisten", "channels": []string{channel}})
		if err != nil {
			slog.Warn("fail to send unlisten frame",
				slog.String("error", err.Error()),
				slog.String("module", "client"),
			)
		}
	}
}

// Close tears the multiplexer down. All handles go silent.
func (r *Realtime) Close() {
	r.mutex.Lock()
	r.closed = true
	conn := r.conn
	r.conn = nil
	r.mutex.Unlock()

	if conn != nil {
		conn.Close()
	}
	r.notify(StatusClosed)
}

func (r *Realtime) send(frame map[string]any) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.conn == nil {
		return errors.New("not connected")
	}
	return r.conn.WriteJSON(frame)
}

// activeChannels must be called with the mutex held.
func (r *Realtime) activeChannels() []string {
	channels := make([]string, 0, len(r.refs))
	for channel, count := range r.refs {
		if count > 0 {
			channels = append(channels, channel)
		}
	}
	return channels
}

func (r *Realtime) readLoop(ctx context.Context) {
	for {
		r.mutex.Lock()
		conn := r.conn
		closed := r.closed
		r.mutex.Unlock()

		if closed || conn == nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			r.mutex.Lock()
			closed = r.closed
			r.mutex.Unlock()
			if closed {
				return
			}
			r.reconnect(ctx)
			continue
		}

		event, ok := normalizeWire(payload)
		if !ok {
			continue
		}

		r.dispatch(event)
	}
}

// dispatch fans an event out to the channel's handles. Events for
// channels nothing is subscribed to anymore are dropped on the floor.
func (r *Realtime) dispatch(event ChangeEvent) {
	r.mutex.Lock()
	targets := make([]*Handle, 0, len(r.handles[event.Channel]))
	for handle := range r.handles[event.Channel] {
		targets = append(targets, handle)
	}
	r.mutex.Unlock()

	for _, handle := range targets {
		handle.deliver(event)
	}
}

func (r *Realtime) reconnect(ctx context.Context) {
	r.notify(StatusReconnecting)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		r.mutex.Lock()
		if r.closed {
			r.mutex.Unlock()
			return
		}
		r.mutex.Unlock()

		conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
		if err != nil {
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		r.mutex.Lock()
		r.conn = conn
		channels := r.activeChannels()
		r.mutex.Unlock()

		if len(channels) > 0 {
			err = conn.WriteJSON(map[string]any{"type": "listen", "channels": channels})
			if err != nil {
				conn.Close()
				continue
			}
		}

		r.notify(StatusConnected)
		return
	}
}

func (r *Realtime) notify(status Status) {
	if r.onStatus != nil {
		r.onStatus(status)
	}
}
