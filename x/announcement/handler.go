// Package announcement manages tenant-wide notices
package announcement

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	Get(c echo.Context) error
	ListActive(c echo.Context) error
}

type handler struct {
	service core.AnnouncementService
}

// NewHandler creates a new handler
func NewHandler(service core.AnnouncementService) Handler {
	return &handler{service: service}
}

func (h handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Announcement.Handler.Create")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	var announcement core.Announcement
	err := c.Bind(&announcement)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	created, err := h.service.Create(ctx, requester, announcement)
	if err != nil {
		var validation core.ValidationError
		if errors.As(err, &validation) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"status": "error", "error": validation.Error(), "fields": validation.Fields})
		}
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "error": "permission denied"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Announcement.Handler.Get")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	announcement, err := h.service.Get(ctx, requester, c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "announcement not found"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": announcement})
}

func (h handler) ListActive(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Announcement.Handler.ListActive")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	announcements, err := h.service.ListActive(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": announcements})
}
