package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

// DefaultCallTimeout bounds each control-plane call when none is configured.
const DefaultCallTimeout = 30 * time.Second

// Activator sequences control-plane calls. The web server has one global
// configuration, so every enable/validate/reload and disable/reload sequence
// runs under a single process-wide lock.
type Activator struct {
	control out.ServerControl
	timeout time.Duration
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewActivator wraps control. A non-positive timeout selects
// DefaultCallTimeout.
func NewActivator(control out.ServerControl, timeout time.Duration, log zerolog.Logger) *Activator {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Activator{
		control: control,
		timeout: timeout,
		log:     log,
	}
}

// Activate enables site, validates the full server configuration and
// reloads. A configuration that fails validation is never reloaded.
func (a *Activator) Activate(ctx context.Context, site string) error {
	log := a.logger(ctx, "Activate", site)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.call(ctx, func(ctx context.Context) error {
		return a.control.Enable(ctx, site)
	}); err != nil {
		return a.fail(log, domain.ErrActivationFailed, "enable "+site, err)
	}

	var (
		ok     bool
		output string
	)
	if err := a.call(ctx, func(ctx context.Context) error {
		var err error
		ok, output, err = a.control.ValidateConfig(ctx)
		return err
	}); err != nil {
		return a.fail(log, domain.ErrConfigValidationFailed, "config test", err)
	}
	if !ok {
		log.Error().Str("output", output).Msg("server configuration test failed, not reloading")
		return fmt.Errorf("%w: %s", domain.ErrConfigValidationFailed, output)
	}

	if err := a.call(ctx, a.control.Reload); err != nil {
		return a.fail(log, domain.ErrActivationFailed, "reload", err)
	}

	log.Info().Msg("site activated")
	return nil
}

// Deactivate disables site and reloads. A site that was not enabled is a
// no-op: the server is not reloaded.
func (a *Activator) Deactivate(ctx context.Context, site string) error {
	log := a.logger(ctx, "Deactivate", site)

	a.mu.Lock()
	defer a.mu.Unlock()

	var changed bool
	if err := a.call(ctx, func(ctx context.Context) error {
		var err error
		changed, err = a.control.Disable(ctx, site)
		return err
	}); err != nil {
		return a.fail(log, domain.ErrActivationFailed, "disable "+site, err)
	}
	if !changed {
		log.Debug().Msg("site was not enabled, skipping reload")
		return nil
	}
	if err := a.call(ctx, a.control.Reload); err != nil {
		return a.fail(log, domain.ErrActivationFailed, "reload", err)
	}

	log.Info().Msg("site deactivated")
	return nil
}

// NormalizeOwnership hands root over to the serving user. The control plane
// refuses anything outside its base directory.
func (a *Activator) NormalizeOwnership(ctx context.Context, root string) error {
	log := a.logger(ctx, "NormalizeOwnership", "")

	if err := a.call(ctx, func(ctx context.Context) error {
		return a.control.SetOwnership(ctx, root)
	}); err != nil {
		return a.fail(log, domain.ErrActivationFailed, "set ownership of "+root, err)
	}
	log.Debug().Str(logging.FieldPath, root).Msg("ownership normalized")
	return nil
}

// call runs fn with its own deadline and reports whether that deadline fired.
func (a *Activator) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: no answer within %s: %v", domain.ErrExternalTimeout, a.timeout, err)
	}
	return err
}

func (a *Activator) fail(log *zerolog.Logger, kind error, step string, err error) error {
	log.Error().Err(err).Str("step", step).Msg("control plane call failed")
	if errors.Is(err, domain.ErrExternalTimeout) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %v", kind, step, err)
}

func (a *Activator) logger(ctx context.Context, op, site string) *zerolog.Logger {
	c := logging.FromCtx(ctx, a.log).With().
		Str(logging.FieldLayer, "usecase").
		Str(logging.FieldUseCase, op).
		Str("server", a.control.Name())
	if site != "" {
		c = c.Str("site", site)
	}
	l := c.Logger()
	return &l
}
