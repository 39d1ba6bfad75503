// Package guest manages guest pre-authorizations and their lifecycle
package guest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	Get(c echo.Context) error
	Query(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
	UpdateStatus(c echo.Context) error
	Stats(c echo.Context) error
}

type handler struct {
	service core.GuestService
}

// NewHandler creates a new handler
func NewHandler(service core.GuestService) Handler {
	return &handler{service: service}
}

func (h handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Create")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	var draft core.GuestDraft
	err := c.Bind(&draft)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	guest, err := h.service.Create(ctx, requester, draft)
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": guest})
}

func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Get")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	guest, err := h.service.Get(ctx, requester, c.Param("id"))
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": guest})
}

func (h handler) Query(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Query")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	query := core.GuestQuery{
		Status:    c.QueryParam("status"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		Search:    c.QueryParam("search"),
	}
	query.Page, _ = strconv.Atoi(c.QueryParam("page"))
	query.PageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))

	page, err := h.service.Query(ctx, requester, query)
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": page})
}

func (h handler) Update(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Update")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	var patch core.GuestPatch
	err := c.Bind(&patch)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	guest, err := h.service.Update(ctx, requester, c.Param("id"), patch)
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": guest})
}

func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Delete")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	err := h.service.Delete(ctx, requester, c.Param("id"))
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h handler) UpdateStatus(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.UpdateStatus")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	var request statusRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	guest, err := h.service.UpdateStatus(ctx, requester, c.Param("id"), request.Status)
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": guest})
}

func (h handler) Stats(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Guest.Handler.Stats")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	stats, err := h.service.Stats(ctx, requester)
	if err != nil {
		return handleError(c, span, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": stats})
}

func handleError(c echo.Context, span trace.Span, err error) error {
	var validation core.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"status": "error", "error": validation.Error(), "fields": validation.Fields})
	}
	if errors.Is(err, core.ErrorNotFound{}) {
		return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "guest not found"})
	}
	if errors.Is(err, core.ErrorPermissionDenied{}) {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "error": "permission denied"})
	}
	if errors.Is(err, core.ErrorInvalidTransition{}) {
		return c.JSON(http.StatusConflict, echo.Map{"status": "error", "error": "operation not allowed in the current status"})
	}
	span.RecordError(err)
	return err
}
