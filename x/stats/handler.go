package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aldea-dev/aldea/core"
	"github.com/aldea-dev/aldea/x/auth"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Dashboard(c echo.Context) error
}

type handler struct {
	service core.StatsService
}

// NewHandler creates a new handler
func NewHandler(service core.StatsService) Handler {
	return &handler{service: service}
}

func (h handler) Dashboard(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Stats.Handler.Dashboard")
	defer span.End()

	requester, _ := auth.RequesterFromContext(c)

	stats, err := h.service.Dashboard(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": stats})
}
