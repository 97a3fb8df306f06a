package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
)

// Keys set on the echo context by middleware.Auth.
const (
	CtxEmail  = "email"
	CtxRole   = "role"
	CtxUserID = "user_id"
)

// ctxIdentity extracts the caller identity injected by the Auth middleware.
// An empty email means the middleware did not run.
func ctxIdentity(c echo.Context) (email string, role domain.Role, err error) {
	email, _ = c.Get(CtxEmail).(string)
	if email == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get(CtxRole).(domain.Role)
	return email, role, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Invalid("%s must be a positive integer", name)
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid("%s must be an integer", name)
	}
	return v, nil
}
