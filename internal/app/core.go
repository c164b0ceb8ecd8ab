package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/out/apache"
	"github.com/bnema/sitehost/internal/adapters/out/command"
	"github.com/bnema/sitehost/internal/adapters/out/filesystem"
	"github.com/bnema/sitehost/internal/adapters/out/nginx"
	"github.com/bnema/sitehost/internal/adapters/out/registry"
	"github.com/bnema/sitehost/internal/adapters/out/vhost"
	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/usecase/provision"
)

// Core holds the wired use case and the adapters commands need direct
// access to.
type Core struct {
	Config   Config
	Service  *provision.Service
	Registry *registry.Store
	Control  out.ServerControl
	Renderer *vhost.Renderer
}

// NewCore wires the output adapters into the provisioning service. runner
// executes the web server control commands.
func NewCore(cfg Config, runner command.Runner, log zerolog.Logger) (*Core, error) {
	roots, err := filesystem.NewDocumentRoots(cfg.Sites.BaseDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare document roots: %w", err)
	}

	vhosts, err := filesystem.NewVhostStore(cfg.Webserver.SitesAvailable, log)
	if err != nil {
		return nil, err
	}

	renderer, err := vhost.NewRenderer(vhost.Config{
		Flavor:     cfg.Webserver.Flavor,
		CertFile:   cfg.Webserver.CertFile,
		KeyFile:    cfg.Webserver.KeyFile,
		LogDir:     cfg.Webserver.LogDir,
		AdminEmail: cfg.Webserver.AdminEmail,
	})
	if err != nil {
		return nil, err
	}

	control, err := newServerControl(cfg, runner, log)
	if err != nil {
		return nil, err
	}

	store, err := registry.Open(cfg.Registry.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open project registry: %w", err)
	}

	activator := provision.NewActivator(control, cfg.Server.CallTimeout, log)
	svc := provision.NewService(
		provision.Config{
			BaseDomain:    cfg.Sites.Domain,
			ReservedNames: cfg.Sites.ReservedNames,
		},
		roots,
		renderer,
		vhosts,
		activator,
		store,
		log,
	)

	log.Debug().
		Str("webserver", control.Name()).
		Str("base_dir", roots.BaseDir()).
		Str("sites_available", vhosts.Dir()).
		Str("domain", cfg.Sites.Domain).
		Msg("provisioning core ready")

	return &Core{
		Config:   cfg,
		Service:  svc,
		Registry: store,
		Control:  control,
		Renderer: renderer,
	}, nil
}

// Close releases the registry.
func (c *Core) Close() error {
	if c.Registry == nil {
		return nil
	}
	return c.Registry.Close()
}

func newServerControl(cfg Config, runner command.Runner, log zerolog.Logger) (out.ServerControl, error) {
	switch cfg.Webserver.Flavor {
	case vhost.FlavorApache:
		return apache.NewControl(apache.Config{
			SitesEnabled:  cfg.Webserver.SitesEnabled,
			ConfigTestCmd: cfg.Webserver.TestCmd,
			ReloadCmd:     cfg.Webserver.ReloadCmd,
			DocumentRoot:  cfg.Sites.BaseDir,
			Owner:         cfg.Webserver.Owner,
		}, runner, log), nil
	case vhost.FlavorNginx:
		return nginx.NewControl(nginx.Config{
			SitesAvailable: cfg.Webserver.SitesAvailable,
			SitesEnabled:   cfg.Webserver.SitesEnabled,
			TestCmd:        cfg.Webserver.TestCmd,
			ReloadCmd:      cfg.Webserver.ReloadCmd,
			DocumentRoot:   cfg.Sites.BaseDir,
			Owner:          cfg.Webserver.Owner,
		}, runner, log), nil
	default:
		return nil, errors.New("unsupported webserver flavor " + cfg.Webserver.Flavor)
	}
}
