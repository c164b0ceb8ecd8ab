package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/logging"
)

// RateLimit rejects requests once the client's bucket is empty. A nil
// limiter disables the check.
func RateLimit(limiter out.RateLimiter, retryAfterSeconds int, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			if limiter.Allow(c.Request().Context(), "ip:"+ip) {
				return next(c)
			}

			log.Warn().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str(logging.FieldPath, c.Request().URL.Path).
				Str("client_ip", ip).
				Msg("rate limit exceeded")
			if retryAfterSeconds > 0 {
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
			}
			return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Success: false, Error: "Too Many Requests"})
		}
	}
}
