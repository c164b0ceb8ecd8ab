package middleware

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/logging"
)

// localhostNets are always allowed.
var localhostNets = ParseTrustedProxies([]string{"127.0.0.0/8", "::1"})

// CIDRAllowlist restricts access to clients inside allowedNets. Loopback is
// always allowed. An empty list lets everything through.
func CIDRAllowlist(allowedNets []*net.IPNet, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if len(allowedNets) == 0 {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			if InNets(ip, localhostNets) || InNets(ip, allowedNets) {
				return next(c)
			}

			log.Warn().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str("method", c.Request().Method).
				Str(logging.FieldPath, c.Request().URL.Path).
				Str("client_ip", ip).
				Msg("request denied by CIDR allowlist")
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Success: false, Error: "Forbidden"})
		}
	}
}
