package nginx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitehost/internal/adapters/out/command"
)

func newTestControl(t *testing.T) (*Control, *command.Recorder, Config) {
	t.Helper()
	cfg := Config{
		SitesAvailable: t.TempDir(),
		SitesEnabled:   t.TempDir(),
		DocumentRoot:   "/var/www/html",
		Owner:          "www-data:www-data",
	}
	rec := command.NewRecorder()
	return NewControl(cfg, rec, zerolog.Nop()), rec, cfg
}

func TestControl_Name(t *testing.T) {
	ctl, _, _ := newTestControl(t)
	assert.Equal(t, "nginx", ctl.Name())
}

func TestControl_Enable(t *testing.T) {
	ctl, rec, cfg := newTestControl(t)

	require.NoError(t, ctl.Enable(context.Background(), "demo.digitel.site"))

	expected := "ln -sfn " + filepath.Join(cfg.SitesAvailable, "demo.digitel.site.conf") + " " +
		filepath.Join(cfg.SitesEnabled, "demo.digitel.site.conf")
	assert.Equal(t, []string{expected}, rec.Calls())
}

func TestControl_Disable(t *testing.T) {
	ctl, rec, cfg := newTestControl(t)

	// Not enabled: nothing to run.
	changed, err := ctl.Disable(context.Background(), "demo.digitel.site")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, rec.Calls())

	link := filepath.Join(cfg.SitesEnabled, "demo.digitel.site.conf")
	require.NoError(t, os.Symlink(filepath.Join(cfg.SitesAvailable, "demo.digitel.site.conf"), link))

	changed, err = ctl.Disable(context.Background(), "demo.digitel.site")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"rm -f -- " + link}, rec.Calls())
}

func TestControl_ValidateConfig(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("nginx -t", command.Result{Output: "nginx: configuration file /etc/nginx/nginx.conf test is successful\n"})

	ok, output, err := ctl.ValidateConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, output, "successful")

	rec.On("nginx -t", command.Result{Err: &command.ExitError{Command: "nginx -t", ExitCode: 1, Output: "nginx: [emerg] unknown directive"}})
	ok, output, err = ctl.ValidateConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, output, "emerg")
}

func TestControl_Reload(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("systemctl reload nginx", command.Result{Err: errors.New("unit not found")})

	assert.ErrorContains(t, ctl.Reload(context.Background()), "unit not found")
}

func TestControl_SetOwnership(t *testing.T) {
	ctl, rec, _ := newTestControl(t)

	require.NoError(t, ctl.SetOwnership(context.Background(), "/var/www/html/demo"))
	assert.True(t, rec.Called("find /var/www/html/demo -type f"))
}
