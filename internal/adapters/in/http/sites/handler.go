// Package sites implements the HTTP adapter for deploying and removing sites.
package sites

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bnema/sitehost/internal/adapters/dto"
	"github.com/bnema/sitehost/internal/boundaries/in"
	"github.com/bnema/sitehost/internal/domain"
	"github.com/bnema/sitehost/internal/logging"
)

// Handler serves the site provisioning API.
type Handler struct {
	svc in.ProvisioningService
	log zerolog.Logger
	now func() time.Time
}

// NewHandler creates a new sites HTTP handler.
func NewHandler(svc in.ProvisioningService, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log, now: time.Now}
}

// RegisterRoutes mounts the API on e. guard wraps the mutating endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo, guard ...echo.MiddlewareFunc) {
	e.GET("/health", h.health)
	e.GET("/check/:subdomain", h.check)
	e.POST("/deploy", h.deploy, guard...)
	e.POST("/delete", h.remove, guard...)
}

func (h *Handler) deploy(c echo.Context) error {
	ctx := logging.CtxWithFields(c.Request().Context(), h.log, map[string]any{
		logging.FieldHandler: "deploy",
	})
	log := logging.FromCtx(ctx, h.log)

	var body dto.DeployRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if body.ProjectID == "" || body.Subdomain == "" || body.Files == nil {
		return fmt.Errorf("%w: missing required fields: projectId, subdomain, files", domain.ErrInvalidInput)
	}

	req, err := toDeploymentRequest(body)
	if err != nil {
		return err
	}
	log.Info().
		Str(logging.FieldProjectID, req.ProjectID).
		Str(logging.FieldSubdomain, req.Subdomain).
		Int("files", len(req.Files)).
		Msg("deployment requested")

	result, err := h.svc.Deploy(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.DeployResponse{
		Success: true,
		Message: "Project deployed successfully",
		URL:     result.URL,
		RunID:   result.RunID,
	})
}

func (h *Handler) remove(c echo.Context) error {
	ctx := logging.CtxWithFields(c.Request().Context(), h.log, map[string]any{
		logging.FieldHandler: "delete",
	})

	var body dto.DeleteRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if body.Subdomain == "" {
		return fmt.Errorf("%w: missing subdomain", domain.ErrInvalidInput)
	}

	if err := h.svc.Delete(ctx, body.Subdomain); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.DeleteResponse{
		Success: true,
		Message: "Project deleted successfully",
	})
}

func (h *Handler) check(c echo.Context) error {
	ctx := logging.CtxWithFields(c.Request().Context(), h.log, map[string]any{
		logging.FieldHandler: "check",
	})

	availability, err := h.svc.Check(ctx, c.Param("subdomain"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.CheckResponse{
		Subdomain: availability.Subdomain,
		Available: availability.Available,
		Reason:    availability.Reason,
	})
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// toDeploymentRequest decodes the uploaded files. Decoding is the only
// transformation; paths are checked by the provisioner.
func toDeploymentRequest(body dto.DeployRequest) (domain.DeploymentRequest, error) {
	req := domain.DeploymentRequest{
		ProjectID: body.ProjectID,
		Subdomain: body.Subdomain,
		Files:     make([]domain.FileEntry, 0, len(body.Files)),
	}
	for i, f := range body.Files {
		content, err := decodeContent(f.Content)
		if err != nil {
			return req, fmt.Errorf("%w: file %d (%q) is not valid base64", domain.ErrInvalidInput, i, f.Name)
		}
		req.Files = append(req.Files, domain.FileEntry{
			Path:     f.Name,
			Content:  content,
			MimeType: f.Type,
		})
	}
	if body.Backend != nil {
		req.Backend = &domain.BackendProxy{
			URL:        strings.TrimSpace(body.Backend.URL),
			PathPrefix: strings.TrimSpace(body.Backend.PathPrefix),
		}
	}
	return req, nil
}

// decodeContent accepts plain base64 and data URLs as produced by
// FileReader.readAsDataURL.
func decodeContent(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ";base64,"); ok {
			s = payload
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
