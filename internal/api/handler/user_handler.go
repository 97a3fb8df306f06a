package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// UserHandler serves the caller's own profile and the admin user endpoints.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	email, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetCurrentUser(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe changes the caller's full name and/or password.
//
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Router       /api/users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	email, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.UpdateUser(c.Request().Context(), email, ports.UpdateUserInput{
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetByEmail looks up any user. ADMIN only.
//
// @Summary      Get user by email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  domain.User
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /api/users/{email} [get]
func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, ok, err := h.users.FindByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, user)
}

// Activate re-enables a user account. ADMIN only.
//
// @Summary      Activate user
// @Tags         users
// @Security     BearerAuth
// @Param        email  path  string  true  "User email"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{email}/activate [post]
func (h *UserHandler) Activate(c echo.Context) error {
	if err := h.users.ActivateUser(c.Request().Context(), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Deactivate disables a user account; the user can no longer log in. ADMIN only.
//
// @Summary      Deactivate user
// @Tags         users
// @Security     BearerAuth
// @Param        email  path  string  true  "User email"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{email}/deactivate [post]
func (h *UserHandler) Deactivate(c echo.Context) error {
	if err := h.users.DeactivateUser(c.Request().Context(), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
