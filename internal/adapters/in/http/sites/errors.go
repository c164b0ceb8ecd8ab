package sites

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput, domain.KindInvalidFormat, domain.KindInvalidLength,
		domain.KindReservedName, domain.KindPathTraversal, domain.KindMissingIndex:
		return http.StatusBadRequest
	case domain.KindAlreadyExists, domain.KindLockContention:
		return http.StatusConflict
	case domain.KindProjectNotFound:
		return http.StatusNotFound
	case domain.KindExternalTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as dto.ErrorResponse. Domain errors carry
// their kind; echo errors keep their status.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := dto.ErrorResponse{Success: false}
		var status int
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			body.Error = fmt.Sprint(httpErr.Message)
		} else {
			kind := domain.KindOf(err)
			status = StatusFor(kind)
			body.Error = err.Error()
			body.Kind = string(kind)
		}

		l := logging.FromCtx(c.Request().Context(), log)
		event := l.Warn()
		if status >= http.StatusInternalServerError {
			event = l.Error()
		}
		event.Err(err).Int("status", status).Str("kind", body.Kind).Msg("request failed")

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			l.Error().Err(err).Msg("failed to write error response")
		}
	}
}
