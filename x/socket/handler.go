// Package socket bridges the redis change feed to websocket clients
package socket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler is the interface for handling HTTP requests
type Handler interface {
	Connect(c echo.Context) error
}

type handler struct {
	manager Manager
}

// NewHandler creates a new handler
func NewHandler(manager Manager) Handler {
	return &handler{manager: manager}
}

// Connect upgrades the request and serves the change feed over it.
// Clients drive the channel set with listen/unlisten frames.
func (h handler) Connect(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Socket.Handler.Connect")
	defer span.End()

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer ws.Close()

	ctx := c.Request().Context()
	sub := h.manager.Register(ctx, ws)
	defer sub.Close()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// server-side keepalive; dead peers get reaped by the read deadline
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		var req request
		err := ws.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed unexpectedly",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
			}
			break
		}

		switch req.Type {
		case "listen":
			err = sub.Listen(ctx, req.Channels)
		case "unlisten":
			err = sub.Unlisten(ctx, req.Channels)
		default:
			continue
		}
		if err != nil {
			span.RecordError(err)
			break
		}
	}

	return nil
}
