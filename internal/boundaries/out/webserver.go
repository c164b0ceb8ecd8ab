package out

import "context"

// ServerControl drives the web server's control plane. Implementations wrap
// external executables; every call must honour ctx cancellation.
type ServerControl interface {
	// Name identifies the web server flavor ("apache", "nginx").
	Name() string

	// Enable registers the site's config with the running server set.
	Enable(ctx context.Context, site string) error

	// Disable unregisters the site. changed is false when the site was not
	// enabled; disabling an unknown site is not an error.
	Disable(ctx context.Context, site string) (changed bool, err error)

	// ValidateConfig tests the full server configuration. ok is false when
	// the server rejects its configuration; output carries the diagnostics.
	// err is reserved for failures to run the test at all.
	ValidateConfig(ctx context.Context) (ok bool, output string, err error)

	// Reload makes the running server pick up the current configuration.
	Reload(ctx context.Context) error

	// SetOwnership hands path over to the serving process's identity and
	// normalizes mode bits. path must be a provisioned document root.
	SetOwnership(ctx context.Context, path string) error
}
