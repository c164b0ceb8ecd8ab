package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// IndexFile is the entry point every site must ship at its root.
const IndexFile = "index.html"

// FileEntry is one file of an uploaded bundle. Path is relative to the site
// root and uses forward slashes.
type FileEntry struct {
	Path     string
	Content  []byte
	MimeType string
}

// BackendProxy forwards a path prefix of the site to an external API.
type BackendProxy struct {
	URL        string
	PathPrefix string
}

// Validate checks the proxy target and prefix.
func (b BackendProxy) Validate() error {
	u, err := url.Parse(b.URL)
	if err != nil || b.URL == "" {
		return fmt.Errorf("%w: backend URL is not a valid URL", ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: backend URL must use http:// or https://", ErrInvalidInput)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: backend URL must include a host", ErrInvalidInput)
	}
	if !strings.HasPrefix(b.PathPrefix, "/") {
		return fmt.Errorf("%w: API prefix must start with /", ErrInvalidInput)
	}
	if b.PathPrefix == "/" {
		return fmt.Errorf("%w: cannot proxy all requests, use a specific path like /api", ErrInvalidInput)
	}
	if strings.ContainsAny(b.PathPrefix, " \t\r\n\"") {
		return fmt.Errorf("%w: API prefix contains invalid characters", ErrInvalidInput)
	}
	return nil
}

// DeploymentRequest asks for one bundle to be published under a subdomain.
type DeploymentRequest struct {
	ProjectID string
	Subdomain string // raw, unvalidated
	Files     []FileEntry
	Backend   *BackendProxy
}

// HasIndex reports whether the bundle carries IndexFile at its root.
func (r DeploymentRequest) HasIndex() bool {
	for _, f := range r.Files {
		if f.Path == IndexFile {
			return true
		}
	}
	return false
}

// SiteStatus is the lifecycle state of a project record in the registry.
type SiteStatus string

const (
	SiteStatusPending   SiteStatus = "pending"
	SiteStatusDeploying SiteStatus = "deploying"
	SiteStatusActive    SiteStatus = "active"
	SiteStatusFailed    SiteStatus = "failed"
	SiteStatusDeleted   SiteStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s SiteStatus) Valid() bool {
	switch s {
	case SiteStatusPending, SiteStatusDeploying, SiteStatusActive, SiteStatusFailed, SiteStatusDeleted:
		return true
	}
	return false
}

// SiteRecord is the registry's view of a project.
type SiteRecord struct {
	ProjectID   string
	ProjectName string
	Subdomain   string
	Status      SiteStatus
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stage is a state of a provisioning run.
type Stage string

const (
	StageReceived         Stage = "received"
	StageValidating       Stage = "validating"
	StageProvisioningFS   Stage = "provisioning_fs"
	StageGeneratingConfig Stage = "generating_config"
	StageActivating       Stage = "activating"
	StageFinalizing       Stage = "finalizing"
	StageSucceeded        Stage = "succeeded"
	StageRolledBack       Stage = "rolled_back"
)

// VirtualHost holds everything needed to render a site's server config.
type VirtualHost struct {
	Subdomain    Subdomain
	BaseDomain   string
	DocumentRoot string
	Backend      *BackendProxy
}

// ServerName returns the externally visible hostname.
func (v VirtualHost) ServerName() string {
	return v.Subdomain.Host(v.BaseDomain)
}

// ConfigName returns the config file name for the site.
func (v VirtualHost) ConfigName() string {
	return v.ServerName() + ".conf"
}

// DeployResult describes a site that was provisioned and activated.
type DeployResult struct {
	RunID        string
	ProjectID    string
	Subdomain    Subdomain
	URL          string
	DocumentRoot string
	ConfigPath   string
}

// Availability is the answer to "can this subdomain be claimed?".
type Availability struct {
	Subdomain string
	Available bool
	Reason    string
}
