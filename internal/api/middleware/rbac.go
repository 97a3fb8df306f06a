package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/api/handler"
	"github.com/etiya/crm-api/internal/core/domain"
)

// RBAC lets the request through only when Auth stored one of the given roles.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(handler.CtxRole).(domain.Role)
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
