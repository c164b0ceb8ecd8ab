// Package out defines output ports (interfaces) for infrastructure.
// These interfaces define the contract between use cases and driven adapters
// (filesystem, web server, project registry).
package out

import (
	"context"

	"github.com/bnema/sitehost/internal/domain"
)

// ProjectRegistry is the document store holding project records. A
// deployment makes sure its record exists, then moves it to active or
// failed. Listing and deletion belong to the registry owner.
type ProjectRegistry interface {
	// EnsureProject creates a pending record for projectID claiming
	// subdomain when none exists. An existing record is left untouched.
	EnsureProject(ctx context.Context, projectID, subdomain string) error

	// GetProject returns the record with the given id, or
	// domain.ErrProjectNotFound.
	GetProject(ctx context.Context, projectID string) (*domain.SiteRecord, error)

	// FindBySubdomain returns the most recent record claiming subdomain, or
	// domain.ErrProjectNotFound.
	FindBySubdomain(ctx context.Context, subdomain string) (*domain.SiteRecord, error)

	// UpdateStatus sets the status of a record. url is stored only when non-empty.
	UpdateStatus(ctx context.Context, projectID string, status domain.SiteStatus, url string) error
}
