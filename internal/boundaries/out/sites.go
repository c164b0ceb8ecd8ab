package out

import (
	"context"

	"github.com/bnema/sitehost/internal/domain"
)

// DocumentRoots owns the per-site document root directories.
type DocumentRoots interface {
	// Provision creates the document root for subdomain and writes entries
	// into it. root is non-empty whenever the directory was created, even if
	// err is also set, so the caller can roll it back.
	Provision(ctx context.Context, subdomain domain.Subdomain, entries []domain.FileEntry) (root string, err error)

	// Deprovision removes the document root. A missing root is not an error.
	Deprovision(ctx context.Context, subdomain domain.Subdomain) error

	// Exists reports whether a document root is present for subdomain.
	Exists(subdomain domain.Subdomain) (bool, error)

	// Path returns the document root path for subdomain without touching disk.
	Path(subdomain domain.Subdomain) string
}

// VhostRenderer renders a site's web server configuration fragment.
type VhostRenderer interface {
	// Render is deterministic: equal inputs produce byte-identical output.
	Render(vhost domain.VirtualHost) (string, error)
}

// VhostStore owns the config files in the server's sites directory.
type VhostStore interface {
	// Write stores config under name and returns the file path.
	Write(ctx context.Context, name, config string) (string, error)

	// Remove deletes the config file. A missing file is not an error.
	Remove(ctx context.Context, name string) error
}
