// Package in defines input ports (interfaces) for use cases.
// These interfaces define the contract between driving adapters (HTTP, CLI)
// and the business logic (use cases).
package in

import (
	"context"

	"github.com/bnema/sitehost/internal/domain"
)

// ProvisioningService turns uploaded bundles into served sites and tears
// them down again.
type ProvisioningService interface {
	// Deploy provisions, configures and activates a site. It either returns a
	// result for a fully active site or an error after a complete rollback.
	Deploy(ctx context.Context, req domain.DeploymentRequest) (*domain.DeployResult, error)

	// Delete deactivates and removes a site. Every teardown step is attempted
	// and all failures are reported together. Unknown sites are a no-op.
	Delete(ctx context.Context, subdomain string) error

	// Check reports whether subdomain can be claimed by a new deployment.
	Check(ctx context.Context, subdomain string) (*domain.Availability, error)

	// Render returns the virtual host config a deployment of subdomain
	// would install.
	Render(ctx context.Context, subdomain string, backend *domain.BackendProxy) (string, error)
}
