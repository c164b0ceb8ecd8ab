// Package nginx implements the web server control plane for nginx with the
// sites-available/sites-enabled layout.
package nginx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/out/command"
	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/logging"
)

// Config holds the nginx paths and commands.
type Config struct {
	SitesAvailable string
	SitesEnabled   string
	TestCmd        []string
	ReloadCmd      []string
	DocumentRoot   string
	Owner          string
}

// DefaultConfig returns the Debian/Ubuntu nginx layout.
func DefaultConfig() Config {
	return Config{
		SitesAvailable: "/etc/nginx/sites-available",
		SitesEnabled:   "/etc/nginx/sites-enabled",
		TestCmd:        []string{"nginx", "-t"},
		ReloadCmd:      []string{"systemctl", "reload", "nginx"},
		DocumentRoot:   "/var/www/html",
		Owner:          "www-data:www-data",
	}
}

var _ out.ServerControl = (*Control)(nil)

// Control enables sites by symlinking them into sites-enabled.
type Control struct {
	config    Config
	runner    command.Runner
	ownership command.Ownership
	log       zerolog.Logger
}

// NewControl creates an nginx control plane. Empty config fields take their
// DefaultConfig value.
func NewControl(cfg Config, runner command.Runner, log zerolog.Logger) *Control {
	defaults := DefaultConfig()
	if cfg.SitesAvailable == "" {
		cfg.SitesAvailable = defaults.SitesAvailable
	}
	if cfg.SitesEnabled == "" {
		cfg.SitesEnabled = defaults.SitesEnabled
	}
	if len(cfg.TestCmd) == 0 {
		cfg.TestCmd = defaults.TestCmd
	}
	if len(cfg.ReloadCmd) == 0 {
		cfg.ReloadCmd = defaults.ReloadCmd
	}
	if cfg.DocumentRoot == "" {
		cfg.DocumentRoot = defaults.DocumentRoot
	}

	return &Control{
		config: cfg,
		runner: runner,
		ownership: command.Ownership{
			Runner:  runner,
			BaseDir: cfg.DocumentRoot,
			Owner:   cfg.Owner,
		},
		log: log.With().
			Str(logging.FieldLayer, "adapter").
			Str(logging.FieldAdapter, "nginx").
			Logger(),
	}
}

// Name returns "nginx".
func (c *Control) Name() string {
	return "nginx"
}

// Enable links sites-available/<site>.conf into sites-enabled.
func (c *Control) Enable(ctx context.Context, site string) error {
	name := confName(site)
	source := filepath.Join(c.config.SitesAvailable, name)
	link := filepath.Join(c.config.SitesEnabled, name)

	if _, err := c.runner.Run(ctx, "ln", "-sfn", source, link); err != nil {
		return fmt.Errorf("link %s: %w", name, err)
	}
	c.log.Debug().Str("site", site).Str(logging.FieldPath, link).Msg("site enabled")
	return nil
}

// Disable removes the sites-enabled link if present.
func (c *Control) Disable(ctx context.Context, site string) (bool, error) {
	link := filepath.Join(c.config.SitesEnabled, confName(site))
	if _, err := os.Lstat(link); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if _, err := c.runner.Run(ctx, "rm", "-f", "--", link); err != nil {
		return false, fmt.Errorf("unlink %s: %w", link, err)
	}
	c.log.Debug().Str("site", site).Msg("site disabled")
	return true, nil
}

// ValidateConfig runs nginx -t.
func (c *Control) ValidateConfig(ctx context.Context) (bool, string, error) {
	output, err := c.runner.Run(ctx, c.config.TestCmd[0], c.config.TestCmd[1:]...)
	if err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) {
			return false, strings.TrimSpace(exitErr.Output), nil
		}
		return false, "", err
	}
	return true, strings.TrimSpace(string(output)), nil
}

// Reload asks systemd to reload nginx.
func (c *Control) Reload(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.config.ReloadCmd[0], c.config.ReloadCmd[1:]...); err != nil {
		return fmt.Errorf("reload nginx: %w", err)
	}
	c.log.Info().Msg("nginx reloaded")
	return nil
}

// SetOwnership hands a document root over to the nginx user.
func (c *Control) SetOwnership(ctx context.Context, path string) error {
	return c.ownership.Apply(ctx, path)
}

func confName(site string) string {
	if strings.HasSuffix(site, ".conf") {
		return site
	}
	return site + ".conf"
}
