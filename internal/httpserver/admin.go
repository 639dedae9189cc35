package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/service"
	"github.com/Skotchmaster/catalogue/internal/transport"
)

const userNotFound = "User not found"

type AdminHTTP struct {
	Svc *service.UserService
}

func parseUserID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *AdminHTTP) CreateAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_admin")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_admin_error", err)
	}

	user, err := h.Svc.CreateAdmin(ctx, req)
	if err != nil {
		return serviceError(l, "create_admin_error", err, userNotFound)
	}

	l.Info("create_admin_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AdminHTTP) ListAdmins(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_admins")

	users, err := h.Svc.ListAdmins(ctx)
	if err != nil {
		return serviceError(l, "list_admins_error", err, userNotFound)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHTTP) UpdateAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_admin")

	id, ok := parseUserID(c)
	if !ok {
		l.Warn("update_admin_error", "status", 404, "reason", "id is not a number", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusNotFound, userNotFound)
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_admin_error", err)
	}

	user, err := h.Svc.UpdateAdmin(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_admin_error", err, userNotFound)
	}

	l.Info("update_admin_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHTTP) DeleteAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_admin")

	id, ok := parseUserID(c)
	if !ok {
		l.Warn("delete_admin_error", "status", 404, "reason", "id is not a number", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusNotFound, userNotFound)
	}

	if err := h.Svc.DeleteAdmin(ctx, id); err != nil {
		return serviceError(l, "delete_admin_error", err, userNotFound)
	}

	l.Info("delete_admin_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
