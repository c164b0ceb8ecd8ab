package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/in/http/sites"
	"github.com/bnema/sitehost/internal/adapters/out/command"
	"github.com/bnema/sitehost/internal/adapters/out/ratelimit"
	"github.com/bnema/sitehost/internal/logging"
)

// ErrMissingAPISecret is returned by Run when no shared secret is configured
// for the mutating endpoints.
var ErrMissingAPISecret = errors.New("server.api_secret must be set before serving the API")

// InitLogger builds the logger described by cfg.
func InitLogger(cfg Config, stderr io.Writer) (zerolog.Logger, func(), error) {
	log, cleanup, err := logging.Setup(cfg.LoggingConfig(), stderr)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, cleanup, nil
}

// Bootstrap loads the config, the logger and the provisioning core. The
// returned cleanup closes all of them.
func Bootstrap(configPath string) (*Core, zerolog.Logger, func(), error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log, logCleanup, err := InitLogger(cfg, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	core, err := NewCore(cfg, command.ExecRunner{Sudo: cfg.Webserver.Sudo}, log)
	if err != nil {
		logCleanup()
		return nil, zerolog.Nop(), nil, err
	}

	cleanup := func() {
		if err := core.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close project registry")
		}
		logCleanup()
	}
	return core, log, cleanup, nil
}

// Run serves the provisioning API until ctx is cancelled or a termination
// signal arrives.
func Run(ctx context.Context, configPath string) error {
	core, log, cleanup, err := Bootstrap(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	return Serve(ctx, core, log)
}

// Serve runs the HTTP API on top of core.
func Serve(ctx context.Context, core *Core, log zerolog.Logger) error {
	cfg := core.Config
	if cfg.Server.APISecret == "" {
		return ErrMissingAPISecret
	}

	log = log.With().Str(logging.FieldLayer, "app").Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := ratelimit.NewMemoryStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL, log)
	sweep := cfg.RateLimit.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	go limiter.Run(ctx, sweep)

	handler := sites.NewHandler(core.Service, log)
	e := sites.NewServer(sites.ServerConfig{
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		APISecret:      cfg.Server.APISecret,
		AllowedCIDRs:   cfg.Server.AllowedCIDRs,
		TrustedProxies: cfg.Server.TrustedProxies,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RetryAfter:     cfg.RateLimit.RetryAfter,
	}, handler, limiter, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads of up to max_upload_size plus a full deployment must fit.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Str("webserver", core.Control.Name()).
		Str("domain", cfg.Sites.Domain).
		Msg("provisioning API listening")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		log.Info().Msg("context cancelled, shutting down")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("provisioning API server: %w", err)
		}
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// In-flight deployments finish or roll back before the listener closes.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("provisioning API shutdown error")
	}
	return nil
}
