// Package vhost renders web server virtual host configuration from embedded
// templates.
package vhost

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/bnema/sitehost/internal/boundaries/out"
	"github.com/bnema/sitehost/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Supported web server flavors.
const (
	FlavorApache = "apache"
	FlavorNginx  = "nginx"
)

// domainPlaceholder is substituted with the base domain in certificate paths.
const domainPlaceholder = "{domain}"

// Config controls the values templates receive besides the site itself.
type Config struct {
	Flavor     string
	CertFile   string // may contain {domain}
	KeyFile    string // may contain {domain}
	LogDir     string
	AdminEmail string // may contain {domain}
}

// DefaultConfig returns the settings matching a stock Debian Apache with
// Let's Encrypt certificates per base domain.
func DefaultConfig() Config {
	return Config{
		Flavor:     FlavorApache,
		CertFile:   "/etc/letsencrypt/live/{domain}/fullchain.pem",
		KeyFile:    "/etc/letsencrypt/live/{domain}/privkey.pem",
		LogDir:     "${APACHE_LOG_DIR}",
		AdminEmail: "admin@{domain}",
	}
}

// Ensure Renderer implements out.VhostRenderer.
var _ out.VhostRenderer = (*Renderer)(nil)

// Renderer turns a domain.VirtualHost into config text.
type Renderer struct {
	config Config
	tmpl   *template.Template
}

type templateData struct {
	ServerName   string
	DocumentRoot string
	CertFile     string
	KeyFile      string
	LogDir       string
	AdminEmail   string
	Backend      *domain.BackendProxy
	BackendTLS   bool
}

// NewRenderer parses the template for cfg.Flavor.
func NewRenderer(cfg Config) (*Renderer, error) {
	defaults := DefaultConfig()
	if cfg.Flavor == "" {
		cfg.Flavor = defaults.Flavor
	}
	if cfg.CertFile == "" {
		cfg.CertFile = defaults.CertFile
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = defaults.KeyFile
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = defaults.AdminEmail
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir(cfg.Flavor)
	}

	switch cfg.Flavor {
	case FlavorApache, FlavorNginx:
	default:
		return nil, fmt.Errorf("unsupported web server flavor %q", cfg.Flavor)
	}

	name := cfg.Flavor + ".conf.tmpl"
	tmpl, err := template.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", cfg.Flavor, err)
	}

	return &Renderer{config: cfg, tmpl: tmpl}, nil
}

// Flavor returns the web server flavor the renderer targets.
func (r *Renderer) Flavor() string {
	return r.config.Flavor
}

// Render produces the config fragment for v. The output depends only on v
// and the renderer config.
func (r *Renderer) Render(v domain.VirtualHost) (string, error) {
	if v.Subdomain == "" || v.BaseDomain == "" || v.DocumentRoot == "" {
		return "", fmt.Errorf("%w: virtual host needs a subdomain, base domain and document root", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(v.DocumentRoot, " \t\r\n\"") {
		return "", fmt.Errorf("%w: document root %q contains unsupported characters", domain.ErrInvalidInput, v.DocumentRoot)
	}

	data := templateData{
		ServerName:   v.ServerName(),
		DocumentRoot: v.DocumentRoot,
		CertFile:     withDomain(r.config.CertFile, v.BaseDomain),
		KeyFile:      withDomain(r.config.KeyFile, v.BaseDomain),
		LogDir:       r.config.LogDir,
		AdminEmail:   withDomain(r.config.AdminEmail, v.BaseDomain),
	}
	if v.Backend != nil {
		if err := v.Backend.Validate(); err != nil {
			return "", err
		}
		backend := *v.Backend
		data.Backend = &backend
		data.BackendTLS = strings.HasPrefix(backend.URL, "https://")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s config for %s: %w", r.config.Flavor, data.ServerName, err)
	}
	return buf.String(), nil
}

func withDomain(s, baseDomain string) string {
	return strings.ReplaceAll(s, domainPlaceholder, baseDomain)
}

func defaultLogDir(flavor string) string {
	if flavor == FlavorNginx {
		return "/var/log/nginx"
	}
	return "${APACHE_LOG_DIR}"
}
