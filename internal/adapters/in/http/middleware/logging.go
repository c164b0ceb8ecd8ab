// Package middleware provides echo middleware for the HTTP API.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/logging"
)

// RequestLogger attaches a request-scoped logger to the request context and
// logs one line per request. It expects echo's RequestID middleware to run
// first.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLog := log.With().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str("request_id", requestID).
				Logger()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is final.
				c.Error(err)
			}

			res := c.Response()
			event := reqLog.Info()
			if res.Status >= http.StatusInternalServerError {
				event = reqLog.Error()
			}
			event.
				Str("method", req.Method).
				Str(logging.FieldPath, req.URL.Path).
				Str("client_ip", c.RealIP()).
				Str("user_agent", req.UserAgent()).
				Int("status", res.Status).
				Int64("bytes_in", req.ContentLength).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
			return nil
		}
	}
}

// PanicRecovery turns a panic into a logged 500.
func PanicRecovery(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str(logging.FieldLayer, "adapter").
						Str(logging.FieldAdapter, "http").
						Str("panic", fmt.Sprint(r)).
						Str("method", c.Request().Method).
						Str(logging.FieldPath, c.Request().URL.Path).
						Msg("panic recovered")
					err = c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Internal Server Error"})
				}
			}()
			return next(c)
		}
	}
}
