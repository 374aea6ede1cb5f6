package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/royaljewels/shop/internal/service"
)

func getUserID(c echo.Context) (uuid.UUID, error) {
	v := c.Get("user_id")
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}

	return userID, nil
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrPaymentIncomplete):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, "payment gateway error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs the failure and maps the service error taxonomy onto HTTP
// status codes. Internals never leak to the client.
func fail(c echo.Context, l *slog.Logger, op string, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(op, "status", status, "error", err)
	} else {
		l.Warn(op, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}
