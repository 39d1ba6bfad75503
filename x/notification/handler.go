// Package notification manages per-user inbox entries
package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	List(c echo.Context) error
	UnreadCount(c echo.Context) error
	MarkRead(c echo.Context) error
	MarkAllRead(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service core.NotificationService
}

// NewHandler creates a new handler
func NewHandler(service core.NotificationService) Handler {
	return &handler{service: service}
}

func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Notification.Handler.List")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	notifications, err := h.service.List(ctx, requester, limit)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": notifications})
}

func (h handler) UnreadCount(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Notification.Handler.UnreadCount")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	count, err := h.service.UnreadCount(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": count})
}

func (h handler) MarkRead(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Notification.Handler.MarkRead")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	notification, err := h.service.MarkRead(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "notification not found"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": notification})
}

func (h handler) MarkAllRead(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Notification.Handler.MarkAllRead")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	err := h.service.MarkAllRead(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Notification.Handler.Delete")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	err := h.service.Delete(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "notification not found"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
