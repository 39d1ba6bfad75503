package socket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("socket")

// Manager tracks which change-feed channels each websocket connection is
// listening to and pumps matching redis messages down to it.
type Manager interface {
	Register(ctx context.Context, conn *websocket.Conn) *Subscription
	ConnectionCount() int64
}

type manager struct {
	rdb *redis.Client

	mutex sync.RWMutex
	subs  map[*websocket.Conn]*Subscription
}

// NewManager creates a new socket manager
func NewManager(rdb *redis.Client) Manager {
	return &manager{
		rdb:  rdb,
		subs: make(map[*websocket.Conn]*Subscription),
	}
}

// Subscription is one connection's view of the change feed. All methods
// are safe for concurrent use; Close is idempotent.
type Subscription struct {
	conn    *websocket.Conn
	pubsub  *redis.PubSub
	manager *manager

	mutex    sync.Mutex
	channels map[string]bool
	closed   bool
}

func (m *manager) Register(ctx context.Context, conn *websocket.Conn) *Subscription {
	sub := &Subscription{
		conn:     conn,
		pubsub:   m.rdb.Subscribe(ctx),
		manager:  m,
		channels: make(map[string]bool),
	}

	m.mutex.Lock()
	m.subs[conn] = sub
	m.mutex.Unlock()

	go sub.pump(ctx)

	return sub
}

func (m *manager) ConnectionCount() int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return int64(len(m.subs))
}

// Listen adds channels to the subscription. Channels already listened to
// are skipped, so repeated requests cost one redis round trip at most.
func (s *Subscription) Listen(ctx context.Context, channels []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}

	var added []string
	for _, channel := range channels {
		if !s.channels[channel] {
			s.channels[channel] = true
			added = append(added, channel)
		}
	}
	if len(added) == 0 {
		return nil
	}

	return s.pubsub.Subscribe(ctx, added...)
}

// Unlisten removes channels from the subscription.
func (s *Subscription) Unlisten(ctx context.Context, channels []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}

	var removed []string
	for _, channel := range channels {
		if s.channels[channel] {
			delete(s.channels, channel)
			removed = append(removed, channel)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	return s.pubsub.Unsubscribe(ctx, removed...)
}

// Close tears the subscription down and deregisters the connection.
func (s *Subscription) Close() {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	s.mutex.Unlock()

	s.pubsub.Close()

	s.manager.mutex.Lock()
	delete(s.manager.subs, s.conn)
	s.manager.mutex.Unlock()
}

// pump relays redis messages to the websocket until either side goes away.
func (s *Subscription) pump(ctx context.Context) {
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.pubsub.Channel():
			if !ok {
				return
			}
			err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
			if err != nil {
				slog.Debug("fail to write message to websocket",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return
			}
		}
	}
}
