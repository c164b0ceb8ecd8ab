// Package provision implements the site provisioning use case: it turns an
// uploaded bundle into a served site and tears sites down again.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/boundaries/in"
	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

// Config holds the provisioning configuration.
type Config struct {
	BaseDomain    string
	ReservedNames []string // nil selects domain.DefaultReservedNames
}

// Ensure Service implements in.ProvisioningService.
var _ in.ProvisioningService = (*Service)(nil)

// Service orchestrates a deployment: validate, write the document root,
// write the virtual host config, activate, then mark the project active.
// Every completed step registers its undo, and a failure unwinds them in
// reverse before the original error is returned.
type Service struct {
	config    Config
	validator *domain.Validator
	roots     out.DocumentRoots
	renderer  out.VhostRenderer
	vhosts    out.VhostStore
	activator *Activator
	registry  out.ProjectRegistry
	locks     *keyedLock
	log       zerolog.Logger

	newRunID func() string
}

// NewService creates a provisioning service. registry may be nil, in which
// case status updates are skipped.
func NewService(
	config Config,
	roots out.DocumentRoots,
	renderer out.VhostRenderer,
	vhosts out.VhostStore,
	activator *Activator,
	registry out.ProjectRegistry,
	log zerolog.Logger,
) *Service {
	reserved := config.ReservedNames
	if reserved == nil {
		reserved = domain.DefaultReservedNames
	}
	return &Service{
		config:    config,
		validator: domain.NewValidator(reserved),
		roots:     roots,
		renderer:  renderer,
		vhosts:    vhosts,
		activator: activator,
		registry:  registry,
		locks:     newKeyedLock(),
		log:       log,
		newRunID:  uuid.NewString,
	}
}

// Deploy runs one deployment to completion or to a full rollback. The
// subdomain stays locked for the whole run.
func (s *Service) Deploy(ctx context.Context, req domain.DeploymentRequest) (*domain.DeployResult, error) {
	runID := s.newRunID()
	ctx = logging.CtxWithFields(ctx, s.log, map[string]any{
		logging.FieldLayer:     "usecase",
		logging.FieldUseCase:   "Deploy",
		logging.FieldRunID:     runID,
		logging.FieldProjectID: req.ProjectID,
	})
	log := logging.FromCtx(ctx, s.log)
	stage(log, domain.StageReceived)

	stage(log, domain.StageValidating)
	sub, err := s.validateRequest(req)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(domain.KindOf(err))).Msg("deployment rejected")
		s.markFailed(ctx, log, req.ProjectID, err)
		return nil, err
	}

	ctx = logging.CtxWithFields(ctx, s.log, map[string]any{logging.FieldSubdomain: sub.String()})
	log = logging.FromCtx(ctx, s.log)

	unlock, err := s.locks.Lock(ctx, sub.String())
	if err != nil {
		log.Warn().Err(err).Msg("subdomain busy")
		return nil, err
	}
	defer unlock()

	if s.registry != nil {
		if err := s.registry.EnsureProject(ctx, req.ProjectID, sub.String()); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrRegistryUpdateFailed, err)
			log.Error().Err(err).Msg("project record unavailable")
			return nil, err
		}
	}

	run := &deployRun{
		service: s,
		ctx:     ctx,
		log:     log,
		req:     req,
		sub:     sub,
		result: &domain.DeployResult{
			RunID:     runID,
			ProjectID: req.ProjectID,
			Subdomain: sub,
		},
	}
	return run.execute()
}

// ValidateName normalizes raw with the configured reserved names, the way
// Deploy and Delete do.
func (s *Service) ValidateName(raw string) (domain.Subdomain, error) {
	return s.validator.Validate(raw)
}

// validateRequest covers everything checkable without touching disk.
func (s *Service) validateRequest(req domain.DeploymentRequest) (domain.Subdomain, error) {
	if req.ProjectID == "" {
		return "", fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	sub, err := s.validator.Validate(req.Subdomain)
	if err != nil {
		return "", err
	}
	if len(req.Files) == 0 {
		return "", fmt.Errorf("%w: no files uploaded", domain.ErrInvalidInput)
	}
	if !req.HasIndex() {
		return "", fmt.Errorf("%w: bundle has no %s at its root", domain.ErrMissingIndex, domain.IndexFile)
	}
	if req.Backend != nil {
		if err := req.Backend.Validate(); err != nil {
			return "", err
		}
	}
	return sub, nil
}

// deployRun carries the state of one Deploy call.
type deployRun struct {
	service *Service
	ctx     context.Context
	log     *zerolog.Logger
	req     domain.DeploymentRequest
	sub     domain.Subdomain
	undo    rollbackStack
	result  *domain.DeployResult
}

func (r *deployRun) execute() (*domain.DeployResult, error) {
	s := r.service
	vhost := s.virtualHost(r.sub, r.req.Backend)

	stage(r.log, domain.StageProvisioningFS)
	root, err := s.roots.Provision(r.ctx, r.sub, r.req.Files)
	if root != "" {
		r.undo.push("deprovision", func(ctx context.Context) error {
			return s.roots.Deprovision(ctx, r.sub)
		})
	}
	if err != nil {
		return r.fail(domain.StageProvisioningFS, err)
	}
	r.result.DocumentRoot = root
	vhost.DocumentRoot = root

	stage(r.log, domain.StageGeneratingConfig)
	config, err := s.renderer.Render(vhost)
	if err != nil {
		return r.fail(domain.StageGeneratingConfig, err)
	}
	path, err := s.vhosts.Write(r.ctx, vhost.ConfigName(), config)
	if err != nil {
		return r.fail(domain.StageGeneratingConfig, err)
	}
	r.undo.push("remove config", func(ctx context.Context) error {
		return s.vhosts.Remove(ctx, vhost.ConfigName())
	})
	r.result.ConfigPath = path

	stage(r.log, domain.StageActivating)
	// Disabling a site that never got enabled is a no-op, so the undo can be
	// registered before a partially failed enable.
	r.undo.push("deactivate", func(ctx context.Context) error {
		return s.activator.Deactivate(ctx, vhost.ServerName())
	})
	if err := s.activator.Activate(r.ctx, vhost.ServerName()); err != nil {
		return r.fail(domain.StageActivating, err)
	}
	if err := s.activator.NormalizeOwnership(r.ctx, root); err != nil {
		return r.fail(domain.StageActivating, err)
	}

	stage(r.log, domain.StageFinalizing)
	url := r.sub.URL(s.config.BaseDomain)
	if s.registry != nil {
		if err := s.registry.UpdateStatus(r.ctx, r.req.ProjectID, domain.SiteStatusActive, url); err != nil {
			return r.fail(domain.StageFinalizing, fmt.Errorf("%w: %v", domain.ErrRegistryUpdateFailed, err))
		}
	}
	r.result.URL = url

	stage(r.log, domain.StageSucceeded)
	r.log.Info().Str("url", url).Msg("site deployed")
	return r.result, nil
}

// fail unwinds the run and returns err unchanged. Undo and registry errors
// are only logged.
func (r *deployRun) fail(at domain.Stage, err error) (*domain.DeployResult, error) {
	s := r.service
	r.log.Error().Err(err).
		Str(logging.FieldStage, string(at)).
		Str("kind", string(domain.KindOf(err))).
		Msg("deployment failed")

	// Rollback must finish even when the caller has gone away.
	cleanupCtx := context.WithoutCancel(r.ctx)
	steps := r.undo.len()
	if failed := r.undo.unwind(cleanupCtx, r.log); failed > 0 {
		r.log.Error().Int("failed_steps", failed).Int("steps", steps).Msg("rollback incomplete")
	}
	stage(r.log, domain.StageRolledBack)

	s.markFailed(cleanupCtx, r.log, r.req.ProjectID, err)
	return nil, err
}

// markFailed records the failure in the registry. Errors are swallowed so the
// caller still sees the deployment error. Conflicts are not recorded: another
// run owns the subdomain and its outcome decides the record.
func (s *Service) markFailed(ctx context.Context, log *zerolog.Logger, projectID string, cause error) {
	if s.registry == nil || projectID == "" {
		return
	}
	switch domain.KindOf(cause) {
	case domain.KindAlreadyExists, domain.KindLockContention:
		return
	}
	if err := s.registry.UpdateStatus(ctx, projectID, domain.SiteStatusFailed, ""); err != nil {
		log.Error().Err(err).Msg("registry status update to failed did not go through")
	}
}

// Delete deactivates the site, removes its config and its document root.
// All three steps run even if one fails; the failures are joined.
func (s *Service) Delete(ctx context.Context, subdomain string) error {
	ctx = logging.CtxWithFields(ctx, s.log, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "Delete",
		logging.FieldRunID:   s.newRunID(),
	})
	log := logging.FromCtx(ctx, s.log)

	sub, err := s.validator.Validate(subdomain)
	if err != nil {
		return err
	}
	ctx = logging.CtxWithFields(ctx, s.log, map[string]any{logging.FieldSubdomain: sub.String()})
	log = logging.FromCtx(ctx, s.log)

	unlock, err := s.locks.Lock(ctx, sub.String())
	if err != nil {
		return err
	}
	defer unlock()

	vhost := s.virtualHost(sub, nil)
	var errs []error
	if err := s.activator.Deactivate(ctx, vhost.ServerName()); err != nil {
		errs = append(errs, fmt.Errorf("deactivate: %w", err))
	}
	if err := s.vhosts.Remove(ctx, vhost.ConfigName()); err != nil {
		errs = append(errs, fmt.Errorf("remove config: %w", err))
	}
	if err := s.roots.Deprovision(ctx, sub); err != nil {
		errs = append(errs, fmt.Errorf("remove document root: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Int("failed_steps", len(errs)).Msg("site deletion incomplete")
		return err
	}
	log.Info().Msg("site deleted")
	return nil
}

// Check reports whether subdomain is free for a new deployment.
func (s *Service) Check(ctx context.Context, subdomain string) (*domain.Availability, error) {
	ctx = logging.CtxWithFields(ctx, s.log, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "Check",
	})
	log := logging.FromCtx(ctx, s.log)

	sub, err := s.validator.Validate(subdomain)
	if err != nil {
		return nil, err
	}
	result := &domain.Availability{Subdomain: sub.String(), Available: true}

	exists, err := s.roots.Exists(sub)
	if err != nil {
		return nil, err
	}
	if exists {
		result.Available = false
		result.Reason = "a site is already deployed at this subdomain"
		return result, nil
	}

	if s.registry != nil {
		record, err := s.registry.FindBySubdomain(ctx, sub.String())
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
		case err != nil:
			return nil, err
		case record.Status != domain.SiteStatusDeleted:
			result.Available = false
			result.Reason = fmt.Sprintf("subdomain is claimed by project %s", record.ProjectID)
		}
	}

	log.Debug().Str(logging.FieldSubdomain, sub.String()).Bool("available", result.Available).Msg("availability checked")
	return result, nil
}

// Render returns the virtual host config a deployment of subdomain would
// install, without writing anything.
func (s *Service) Render(_ context.Context, subdomain string, backend *domain.BackendProxy) (string, error) {
	sub, err := s.validator.Validate(subdomain)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(s.virtualHost(sub, backend))
}

func (s *Service) virtualHost(sub domain.Subdomain, backend *domain.BackendProxy) domain.VirtualHost {
	return domain.VirtualHost{
		Subdomain:    sub,
		BaseDomain:   s.config.BaseDomain,
		DocumentRoot: s.roots.Path(sub),
		Backend:      backend,
	}
}

func stage(log *zerolog.Logger, st domain.Stage) {
	log.Info().Str(logging.FieldStage, string(st)).Msg("stage")
}
