package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/models"
	"github.com/Skotchmaster/catalogue/internal/service"
)

const CtxUser = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, error)
}

// Auth resolves "Authorization: Bearer <access>" headers to users.
type Auth struct {
	Users Authenticator
}

func New(users Authenticator) *Auth {
	return &Auth{Users: users}
}

func bearer(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(CtxUser).(*models.User)
	return u
}

func (m *Auth) resolve(c echo.Context) (*models.User, error) {
	raw := bearer(c)
	if raw == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	}

	user, err := m.Users.Authenticate(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Given token not valid for any token type")
		}
		return nil, err
	}
	return user, nil
}

// Optional attaches the user when a valid token is present. A missing or
// bad token leaves the request anonymous; a lookup failure is a 500.
func (m *Auth) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if bearer(c) == "" {
			return next(c)
		}
		user, err := m.resolve(c)
		if err != nil {
			l := logging.FromContext(c.Request().Context())
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				l.Error("auth_error", "status", 500, "error", err)
				return internalError()
			}
			l.Debug("optional_auth_ignored", "error", err)
			return next(c)
		}
		c.Set(CtxUser, user)
		return next(c)
	}
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolve(c)
		if err != nil {
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				logging.FromContext(c.Request().Context()).Error("auth_error", "status", 500, "error", err)
				return internalError()
			}
			return err
		}
		c.Set(CtxUser, user)
		return next(c)
	}
}

func internalError() error {
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// RequireStaff is RequireAuth plus the is_staff flag.
func (m *Auth) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if u := UserFrom(c); u == nil || !u.IsStaff {
			return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action.")
		}
		return next(c)
	})
}
