package sites

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/in/http/middleware"
	"github.com/bnema/sitehost/internal/boundaries/out"
)

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	MaxUploadSize  string // echo size notation, e.g. "100M"
	APISecret      string
	AllowedCIDRs   []string
	TrustedProxies []string
	CORSOrigins    []string
	RetryAfter     int // seconds, sent with 429 responses
}

// NewServer builds the echo instance serving h.
func NewServer(cfg ServerConfig, h *Handler, limiter out.RateLimiter, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = middleware.IPExtractor(middleware.ParseTrustedProxies(cfg.TrustedProxies))
	e.HTTPErrorHandler = ErrorHandler(log)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload == "" {
		maxUpload = "100M"
	}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.PanicRecovery(log))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, middleware.HeaderAPISecret},
	}))
	e.Use(echomw.BodyLimit(maxUpload))

	h.RegisterRoutes(e,
		middleware.CIDRAllowlist(middleware.ParseTrustedProxies(cfg.AllowedCIDRs), log),
		middleware.RateLimit(limiter, cfg.RetryAfter, log),
		middleware.APISecret(cfg.APISecret, log),
	)
	return e
}
