// Package apache implements the web server control plane for Debian-style
// Apache installations (a2ensite/a2dissite, apache2ctl, systemd).
package apache

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

// Config holds the Apache paths and commands.
type Config struct {
	SitesEnabled  string   // /etc/apache2/sites-enabled
	ConfigTestCmd []string // apache2ctl configtest
	ReloadCmd     []string // systemctl reload apache2
	DocumentRoot  string   // base directory of every site, bounds SetOwnership
	Owner         string   // www-data:www-data
}

// DefaultConfig returns the stock Debian/Ubuntu layout.
func DefaultConfig() Config {
	return Config{
		SitesEnabled:  "/etc/apache2/sites-enabled",
		ConfigTestCmd: []string{"apache2ctl", "configtest"},
		ReloadCmd:     []string{"systemctl", "reload", "apache2"},
		DocumentRoot:  "/var/www/html",
		Owner:         "www-data:www-data",
	}
}

// Ensure Control implements out.ServerControl.
var _ out.ServerControl = (*Control)(nil)

// Control drives Apache through its command line tools.
type Control struct {
	config    Config
	runner    command.Runner
	ownership command.Ownership
	log       zerolog.Logger
}

// NewControl creates an Apache control plane. Empty config fields take
// their DefaultConfig value.
func NewControl(cfg Config, runner command.Runner, log zerolog.Logger) *Control {
	defaults := DefaultConfig()
	if cfg.SitesEnabled == "" {
		cfg.SitesEnabled = defaults.SitesEnabled
	}
	if len(cfg.ConfigTestCmd) == 0 {
		cfg.ConfigTestCmd = defaults.ConfigTestCmd
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
			Str(logging.FieldAdapter, "apache").
			Logger(),
	}
}

// Name returns "apache".
func (c *Control) Name() string {
	return "apache"
}

// Enable runs a2ensite for the site's config file.
func (c *Control) Enable(ctx context.Context, site string) error {
	if _, err := c.runner.Run(ctx, "a2ensite", "-q", confName(site)); err != nil {
		return fmt.Errorf("a2ensite %s: %w", site, err)
	}
	c.log.Debug().Str("site", site).Msg("site enabled")
	return nil
}

// Disable runs a2dissite. Sites that are not enabled are left alone and
// reported as unchanged.
func (c *Control) Disable(ctx context.Context, site string) (bool, error) {
	link := filepath.Join(c.config.SitesEnabled, confName(site))
	if _, err := os.Lstat(link); errors.Is(err, fs.ErrNotExist) {
		c.log.Debug().Str("site", site).Msg("site not enabled, nothing to disable")
		return false, nil
	}

	if _, err := c.runner.Run(ctx, "a2dissite", "-q", confName(site)); err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) && strings.Contains(exitErr.Output, "does not exist") {
			return false, nil
		}
		return false, fmt.Errorf("a2dissite %s: %w", site, err)
	}
	c.log.Debug().Str("site", site).Msg("site disabled")
	return true, nil
}

// ValidateConfig runs apache2ctl configtest.
func (c *Control) ValidateConfig(ctx context.Context) (bool, string, error) {
	output, err := c.runner.Run(ctx, c.config.ConfigTestCmd[0], c.config.ConfigTestCmd[1:]...)
	if err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) {
			return false, strings.TrimSpace(exitErr.Output), nil
		}
		return false, "", err
	}
	return true, strings.TrimSpace(string(output)), nil
}

// Reload asks systemd to gracefully reload Apache.
func (c *Control) Reload(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.config.ReloadCmd[0], c.config.ReloadCmd[1:]...); err != nil {
		return fmt.Errorf("reload apache: %w", err)
	}
	c.log.Info().Msg("apache reloaded")
	return nil
}

// SetOwnership hands a document root over to the Apache user.
func (c *Control) SetOwnership(ctx context.Context, path string) error {
	return c.ownership.Apply(ctx, path)
}

func confName(site string) string {
	if strings.HasSuffix(site, ".conf") {
		return site
	}
	return site + ".conf"
}
