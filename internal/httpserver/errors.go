package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/animerch/internal/service"
)

const msgServerError = "Server Error"

// ErrorHandler renders every error as {"message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := msgServerError

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else if he.Message != nil {
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"message": msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs a service error under event and converts it to an HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", "internal error", "error", err)
		return echo.NewHTTPError(status, msgServerError)
	}
	reason := service.Reason(err)
	l.Warn(event, "status", status, "reason", reason, "error", err)
	return echo.NewHTTPError(status, reason)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// invalid reports a failed c.Validate; the validator already built the message.
func invalid(l *slog.Logger, event string, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		l.Warn(event, "status", he.Code, "reason", he.Message, "error", err)
		return he
	}
	return badRequest(l, event, "Invalid request body", err)
}

// pathID parses :id. An id that is not a uuid cannot name an existing
// record, so it is reported as missing.
func pathID(c echo.Context, l *slog.Logger, event, notFoundMsg string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", http.StatusNotFound, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	}
	return id, nil
}
