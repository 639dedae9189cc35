package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/middleware/auth"
	"github.com/Skotchmaster/catalogue/internal/service"
	"github.com/Skotchmaster/catalogue/internal/transport"
)

type AuthHTTP struct {
	Svc *service.UserService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var creds transport.Credentials
	if err := c.Bind(&creds); err != nil {
		return invalidBody(l, "login_error", err)
	}

	pair, err := h.Svc.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			l.Warn("login_error", "status", 401, "reason", "bad credentials", "username", creds.Username)
			return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
		}
		return serviceError(l, "login_error", err, "User not found")
	}

	l.Info("login_success", "username", creds.Username)
	return c.JSON(http.StatusOK, transport.TokenPairResponse{Refresh: pair.Refresh, Access: pair.Access})
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "signup_error", err)
	}

	res, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return serviceError(l, "signup_error", err, "User not found")
	}

	l.Info("signup_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.SignupResponse{
		Refresh: res.Tokens.Refresh,
		Access:  res.Tokens.Access,
		User:    *res.User,
	})
}

func (h *AuthHTTP) TestToken(c echo.Context) error {
	user := auth.UserFrom(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return c.JSON(http.StatusOK, fmt.Sprintf("You are authenticated %s", user.Email))
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh_token")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "refresh_token_error", err)
	}

	access, err := h.Svc.Refresh(ctx, req.Refresh)
	if err != nil {
		return serviceError(l, "refresh_token_error", err, "User not found")
	}

	return c.JSON(http.StatusOK, transport.AccessResponse{Access: access})
}
