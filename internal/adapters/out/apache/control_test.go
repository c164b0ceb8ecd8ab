package apache

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

func newTestControl(t *testing.T) (*Control, *command.Recorder, string) {
	t.Helper()
	enabled := t.TempDir()
	rec := command.NewRecorder()
	ctl := NewControl(Config{
		SitesEnabled: enabled,
		DocumentRoot: "/var/www/html",
		Owner:        "www-data:www-data",
	}, rec, zerolog.Nop())
	return ctl, rec, enabled
}

func TestControl_Enable(t *testing.T) {
	ctl, rec, _ := newTestControl(t)

	require.NoError(t, ctl.Enable(context.Background(), "demo.digitel.site"))
	assert.Equal(t, []string{"a2ensite -q demo.digitel.site.conf"}, rec.Calls())
}

func TestControl_Enable_Failure(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("a2ensite -q demo.digitel.site.conf", command.Result{Err: &command.ExitError{Command: "a2ensite", ExitCode: 1, Output: "ERROR: Site demo does not exist!"}})

	err := ctl.Enable(context.Background(), "demo.digitel.site")
	assert.ErrorContains(t, err, "does not exist")
}

func TestControl_Disable_NotEnabled(t *testing.T) {
	ctl, rec, _ := newTestControl(t)

	changed, err := ctl.Disable(context.Background(), "demo.digitel.site")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, rec.Calls())
}

func TestControl_Disable_Enabled(t *testing.T) {
	ctl, rec, enabled := newTestControl(t)
	require.NoError(t, os.Symlink("../sites-available/demo.digitel.site.conf", filepath.Join(enabled, "demo.digitel.site.conf")))

	changed, err := ctl.Disable(context.Background(), "demo.digitel.site")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"a2dissite -q demo.digitel.site.conf"}, rec.Calls())
}

func TestControl_Disable_ToleratesMissingSite(t *testing.T) {
	ctl, rec, enabled := newTestControl(t)
	require.NoError(t, os.WriteFile(filepath.Join(enabled, "demo.digitel.site.conf"), nil, 0644))
	rec.On("a2dissite -q demo.digitel.site.conf", command.Result{Err: &command.ExitError{Command: "a2dissite", ExitCode: 1, Output: "ERROR: Site demo.digitel.site does not exist!"}})

	changed, err := ctl.Disable(context.Background(), "demo.digitel.site")
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestControl_ValidateConfig(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("apache2ctl configtest", command.Result{Output: "Syntax OK\n"})

	ok, output, err := ctl.ValidateConfig(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Syntax OK", output)
}

func TestControl_ValidateConfig_Rejected(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("apache2ctl configtest", command.Result{Err: &command.ExitError{
		Command:  "apache2ctl configtest",
		ExitCode: 1,
		Output:   "AH00526: Syntax error on line 7\n",
	}})

	ok, output, err := ctl.ValidateConfig(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, output, "AH00526")
}

func TestControl_ValidateConfig_CannotRun(t *testing.T) {
	ctl, rec, _ := newTestControl(t)
	rec.On("apache2ctl configtest", command.Result{Err: errors.New("executable file not found")})

	ok, _, err := ctl.ValidateConfig(context.Background())

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestControl_Reload(t *testing.T) {
	ctl, rec, _ := newTestControl(t)

	require.NoError(t, ctl.Reload(context.Background()))
	assert.Equal(t, []string{"systemctl reload apache2"}, rec.Calls())

	rec.On("systemctl reload apache2", command.Result{Err: errors.New("job failed")})
	assert.ErrorContains(t, ctl.Reload(context.Background()), "job failed")
}

func TestControl_SetOwnership(t *testing.T) {
	ctl, rec, _ := newTestControl(t)

	require.NoError(t, ctl.SetOwnership(context.Background(), "/var/www/html/demo"))
	assert.True(t, rec.Called("chown -R -- www-data:www-data /var/www/html/demo"))

	assert.Error(t, ctl.SetOwnership(context.Background(), "/var/www"))
}
