package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/logging"
)

// HeaderAPISecret carries the shared secret on mutating requests.
const HeaderAPISecret = "X-API-Secret"

// APISecret rejects requests whose X-API-Secret header does not match
// secret. An empty secret rejects everything.
func APISecret(secret string, log zerolog.Logger) echo.MiddlewareFunc {
	want := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(HeaderAPISecret))
			if len(want) > 0 && subtle.ConstantTimeCompare(got, want) == 1 {
				return next(c)
			}

			log.Warn().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str(logging.FieldPath, c.Request().URL.Path).
				Str("client_ip", c.RealIP()).
				Bool("secret_present", len(got) > 0).
				Msg("unauthorized request")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Success: false, Error: "Unauthorized"})
		}
	}
}
