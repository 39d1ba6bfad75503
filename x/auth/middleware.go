package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aldea-dev/aldea/core"
)

// IdentifyRequester parses the bearer token and stashes the requester
// identity in the echo context. Requests without a usable token pass
// through unidentified; route guards decide what to do with that.
func (s *service) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, span := tracer.Start(c.Request().Context(), "Auth.Service.IdentifyRequester")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		if authHeader == "" {
			return next(c)
		}

		split := strings.Split(authHeader, " ")
		if len(split) != 2 || split[0] != "Bearer" {
			span.RecordError(fmt.Errorf("invalid authentication header"))
			return next(c)
		}

		claims := Claims{}
		_, err := jwt.ParseWithClaims(split[1], &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.config.AccessSecret), nil
		})
		if err != nil {
			span.RecordError(err)
			return next(c)
		}

		c.Set(core.RequesterIDCtxKey, claims.Subject)
		c.Set(core.RequesterTenantCtxKey, claims.TenantID)
		c.Set(core.RequesterRoleCtxKey, claims.RoleCode)
		if claims.HouseholdID != nil {
			c.Set(core.RequesterHouseholdCtxKey, *claims.HouseholdID)
		}

		span.SetAttributes(attribute.String("RequesterID", claims.Subject))
		span.SetAttributes(attribute.String("RequesterTenant", claims.TenantID))

		return next(c)
	}
}

// RequesterFromContext reassembles the requester identity stashed by
// IdentifyRequester. ok is false when the request was unauthenticated.
func RequesterFromContext(c echo.Context) (core.Requester, bool) {
	userID, ok := c.Get(core.RequesterIDCtxKey).(string)
	if !ok || userID == "" {
		return core.Requester{}, false
	}

	requester := core.Requester{UserID: userID}
	if tenantID, ok := c.Get(core.RequesterTenantCtxKey).(string); ok {
		requester.TenantID = tenantID
	}
	if roleCode, ok := c.Get(core.RequesterRoleCtxKey).(string); ok {
		requester.RoleCode = roleCode
	}
	if householdID, ok := c.Get(core.RequesterHouseholdCtxKey).(string); ok {
		requester.HouseholdID = &householdID
	}

	return requester, true
}

// Restrict rejects requests that are not authenticated, not tenant-scoped,
// or not carrying one of the given roles. An empty role list only requires
// a tenant-scoped session.
func Restrict(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requester, ok := RequesterFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "error": "authentication required"})
			}
			if requester.TenantID == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "error": "tenant selection required"})
			}
			if len(roles) == 0 {
				return next(c)
			}
			for _, role := range roles {
				if requester.RoleCode == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "error": "insufficient role"})
		}
	}
}
