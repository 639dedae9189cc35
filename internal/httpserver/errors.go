package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/service"
)

// serviceError maps a service error to the HTTP error returned to the
// client and logs it under event. Unexpected errors never leak.
func serviceError(l *slog.Logger, event string, err error, notFound string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Warn(event, "status", 400, "reason", verr.Message, "error", err)
		if len(verr.Fields) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": verr.Message,
			"errors":  verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", notFound, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrUnauthenticated):
		l.Warn(event, "status", 401, "reason", "unauthenticated", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 403, "reason", "forbidden", "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, service.ErrNotification):
		l.Error(event, "status", 502, "reason", "notification failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Could not send the update notification; the product was not changed.")
	default:
		l.Error(event, "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func invalidBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}

// bindError turns a JSON value of the wrong type into a field error so it
// renders like any other validation failure. Unreadable bodies stay
// "invalid body".
func bindError(l *slog.Logger, event, message string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return invalidBody(l, event, err)
	}

	l.Warn(event, "status", 400, "reason", message, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"message": message,
		"errors":  map[string]string{typeErr.Field: typeReason(typeErr.Type)},
	})
}

func typeReason(t reflect.Type) string {
	if t == nil {
		return "invalid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a valid integer is required"
	case reflect.String:
		return "not a valid string"
	default:
		return "invalid value"
	}
}
