// Package auth handles accounts, sessions and tenant scoping
package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aldea-dev/aldea/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Register(c echo.Context) error
	Login(c echo.Context) error
	SwitchTenant(c echo.Context) error
	Refresh(c echo.Context) error
	Logout(c echo.Context) error
	RequestPasswordReset(c echo.Context) error
	UpdatePassword(c echo.Context) error
	Me(c echo.Context) error
}

type handler struct {
	service core.AuthService
}

// NewHandler creates a new handler
func NewHandler(service core.AuthService) Handler {
	return &handler{service: service}
}

func (h handler) Register(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.Register")
	defer span.End()

	var request registerRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	user, err := h.service.Register(ctx, request.Email, request.Password, request.FirstName, request.LastName)
	if err != nil {
		var validation core.ValidationError
		if errors.As(err, &validation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": validation.Error(), "fields": validation.Fields})
		}
		if errors.Is(err, core.ErrorAlreadyExists{}) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "error": "email already registered"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": user})
}

func (h handler) Login(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.Login")
	defer span.End()

	var request loginRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	result, err := h.service.Login(ctx, request.Email, request.Password)
	if err != nil {
		if errors.Is(err, core.ErrorUnauthorized{}) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "invalid credentials"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": result})
}

func (h handler) SwitchTenant(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.SwitchTenant")
	defer span.End()

	requester, ok := RequesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "authentication required"})
	}

	var request switchTenantRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	session, err := h.service.SwitchTenant(ctx, requester.UserID, request.TenantID)
	if err != nil {
		if errors.Is(err, core.ErrorPermissionDenied{}) {
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "error": "not a member of that tenant"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": session})
}

func (h handler) Refresh(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.Refresh")
	defer span.End()

	var request refreshRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	session, err := h.service.Refresh(ctx, request.RefreshToken)
	if err != nil {
		if errors.Is(err, core.ErrorUnauthorized{}) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "invalid refresh token"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": session})
}

func (h handler) Logout(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.Logout")
	defer span.End()

	var request refreshRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	err = h.service.Logout(ctx, request.RefreshToken)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h handler) RequestPasswordReset(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.RequestPasswordReset")
	defer span.End()

	var request passwordResetRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	err = h.service.RequestPasswordReset(ctx, request.Email)
	if err != nil {
		span.RecordError(err)
		return err
	}

	// always ok, so the endpoint cannot be used to probe addresses
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h handler) UpdatePassword(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.UpdatePassword")
	defer span.End()

	var request passwordUpdateRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": "invalid request body"})
	}

	err = h.service.UpdatePassword(ctx, request.ResetToken, request.NewPassword)
	if err != nil {
		var validation core.ValidationError
		if errors.As(err, &validation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "error": validation.Error(), "fields": validation.Fields})
		}
		if errors.Is(err, core.ErrorUnauthorized{}) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "invalid or expired reset token"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Me returns the authenticated account.
func (h handler) Me(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Auth.Handler.Me")
	defer span.End()

	requester, ok := RequesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "authentication required"})
	}

	user, err := h.service.GetUser(ctx, requester.UserID)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "error": "user not found"})
		}
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": user})
}
