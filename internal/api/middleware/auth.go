package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/api/handler"
	"github.com/etiya/crm-api/internal/core/ports"
)

// Auth verifies the bearer token and injects the caller identity into the
// echo context and the request context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(handler.CtxEmail, claims.Email)
			c.Set(handler.CtxRole, claims.Role)
			c.Set(handler.CtxUserID, claims.UserID)
			c.SetRequest(c.Request().WithContext(ports.WithActor(c.Request().Context(), claims.Email)))

			return next(c)
		}
	}
}
