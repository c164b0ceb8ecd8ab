package vhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitehost/internal/domain"
)

func testSite() domain.VirtualHost {
	return domain.VirtualHost{
		Subdomain:    "demo",
		BaseDomain:   "digitel.site",
		DocumentRoot: "/var/www/html/demo",
	}
}

func TestNewRenderer_UnknownFlavor(t *testing.T) {
	_, err := NewRenderer(Config{Flavor: "caddy"})
	assert.Error(t, err)
}

func TestRenderer_Apache(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)
	assert.Equal(t, FlavorApache, r.Flavor())

	out, err := r.Render(testSite())
	require.NoError(t, err)

	expected := []string{
		"<VirtualHost *:443>",
		"ServerName demo.digitel.site",
		"ServerAdmin admin@digitel.site",
		"DocumentRoot /var/www/html/demo",
		"SSLEngine on",
		"SSLCertificateFile /etc/letsencrypt/live/digitel.site/fullchain.pem",
		"SSLCertificateKeyFile /etc/letsencrypt/live/digitel.site/privkey.pem",
		"Options -Indexes",
		"Require all denied",
		"<Directory /var/www/html/demo>",
		`RewriteRule ^index\.html$ - [L]`,
		"RewriteCond %{REQUEST_FILENAME} !-f",
		"RewriteCond %{REQUEST_FILENAME} !-d",
		"RewriteRule . /index.html [L]",
		`Header always set X-Content-Type-Options "nosniff"`,
		`Header always set X-Frame-Options "SAMEORIGIN"`,
		`Header always set X-XSS-Protection "1; mode=block"`,
		"ErrorLog ${APACHE_LOG_DIR}/demo.digitel.site-error.log",
		"<VirtualHost *:80>",
		"Redirect permanent / https://demo.digitel.site/",
	}
	for _, line := range expected {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "ProxyPass")
}

func TestRenderer_Nginx(t *testing.T) {
	r, err := NewRenderer(Config{Flavor: FlavorNginx})
	require.NoError(t, err)

	out, err := r.Render(testSite())
	require.NoError(t, err)

	expected := []string{
		"listen 443 ssl;",
		"server_name demo.digitel.site;",
		"root /var/www/html/demo;",
		"autoindex off;",
		"ssl_certificate /etc/letsencrypt/live/digitel.site/fullchain.pem;",
		"location = /index.html",
		"try_files $uri $uri/ /index.html;",
		`add_header X-Frame-Options "SAMEORIGIN" always;`,
		"access_log /var/log/nginx/demo.digitel.site-access.log;",
		"listen 80;",
		"return 301 https://demo.digitel.site$request_uri;",
	}
	for _, line := range expected {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "proxy_pass")
}

func TestRenderer_Deterministic(t *testing.T) {
	for _, flavor := range []string{FlavorApache, FlavorNginx} {
		r, err := NewRenderer(Config{Flavor: flavor})
		require.NoError(t, err)

		site := testSite()
		site.Backend = &domain.BackendProxy{URL: "https://api.example.com", PathPrefix: "/api"}

		first, err := r.Render(site)
		require.NoError(t, err)
		second, err := r.Render(site)
		require.NoError(t, err)

		assert.Equal(t, first, second, flavor)
	}
}

func TestRenderer_CustomCertificates(t *testing.T) {
	r, err := NewRenderer(Config{
		CertFile: "/etc/letsencrypt/live/{domain}-0001/fullchain.pem",
		KeyFile:  "/etc/letsencrypt/live/{domain}-0001/privkey.pem",
		LogDir:   "/var/log/apache2",
	})
	require.NoError(t, err)

	out, err := r.Render(testSite())
	require.NoError(t, err)

	assert.Contains(t, out, "SSLCertificateFile /etc/letsencrypt/live/digitel.site-0001/fullchain.pem")
	assert.Contains(t, out, "CustomLog /var/log/apache2/demo.digitel.site-access.log combined")
}

func TestRenderer_Backend(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)

	site := testSite()
	site.Backend = &domain.BackendProxy{URL: "https://api.example.com", PathPrefix: "/api"}

	out, err := r.Render(site)
	require.NoError(t, err)

	assert.Contains(t, out, "SSLProxyEngine on")
	assert.Contains(t, out, "ProxyPass /api https://api.example.com")
	assert.Contains(t, out, "ProxyPassReverse /api https://api.example.com")

	site.Backend = &domain.BackendProxy{URL: "http://10.0.0.5:8080", PathPrefix: "/v1"}
	out, err = r.Render(site)
	require.NoError(t, err)
	assert.NotContains(t, out, "SSLProxyEngine")
	assert.Contains(t, out, "ProxyPass /v1 http://10.0.0.5:8080")
}

func TestRenderer_InvalidBackend(t *testing.T) {
	r, err := NewRenderer(Config{Flavor: FlavorNginx})
	require.NoError(t, err)

	site := testSite()
	site.Backend = &domain.BackendProxy{URL: "https://api.example.com", PathPrefix: "/"}

	_, err = r.Render(site)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderer_MissingFields(t *testing.T) {
	r, err := NewRenderer(Config{})
	require.NoError(t, err)

	_, err = r.Render(domain.VirtualHost{Subdomain: "demo", BaseDomain: "digitel.site"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Render(domain.VirtualHost{Subdomain: "demo", BaseDomain: "digitel.site", DocumentRoot: "/var/www/my site"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
