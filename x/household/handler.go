// Package household resolves residences and their memberships
package household

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Get(c echo.Context) error
	GetMine(c echo.Context) error
}

type handler struct {
	service core.HouseholdService
}

// NewHandler creates a new handler
func NewHandler(service core.HouseholdService) Handler {
	return &handler{service: service}
}

// Get returns a household by ID
func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Household.Handler.Get")
	defer span.End()

	id := c.Param("id")
	household, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "household not found"})
		}
		span.RecordError(err)
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": household})
}

// GetMine returns the requester's own household
func (h handler) GetMine(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Household.Handler.GetMine")
	defer span.End()

	requester, ok := auth.RequesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "unauthorized"})
	}

	household, err := h.service.GetMine(ctx, requester)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "no household for requester"})
		}
		span.RecordError(err)
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": household})
}
