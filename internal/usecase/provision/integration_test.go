package provision

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitehost/internal/adapters/out/apache"
	"github.com/bnema/sitehost/internal/adapters/out/command"
	"github.com/bnema/sitehost/internal/adapters/out/filesystem"
	"github.com/bnema/sitehost/internal/adapters/out/registry"
	"github.com/bnema/sitehost/internal/adapters/out/vhost"
	"github.com/bnema/sitehost/internal/domain"
)

type stack struct {
	svc       *Service
	baseDir   string
	available string
	runner    *command.Recorder
}

// newStack wires the service to real filesystem adapters and a recording
// command runner in place of the web server tools.
func newStack(t *testing.T) *stack {
	t.Helper()
	tmp := t.TempDir()
	baseDir := filepath.Join(tmp, "www")
	available := filepath.Join(tmp, "sites-available")
	enabled := filepath.Join(tmp, "sites-enabled")
	require.NoError(t, os.MkdirAll(available, 0755))
	require.NoError(t, os.MkdirAll(enabled, 0755))

	log := zerolog.Nop()
	roots, err := filesystem.NewDocumentRoots(baseDir, log)
	require.NoError(t, err)
	store, err := filesystem.NewVhostStore(available, log)
	require.NoError(t, err)
	renderer, err := vhost.NewRenderer(vhost.Config{})
	require.NoError(t, err)

	runner := command.NewRecorder()
	control := apache.NewControl(apache.Config{
		SitesEnabled: enabled,
		DocumentRoot: baseDir,
	}, runner, log)

	svc := NewService(
		Config{BaseDomain: "digitel.site"},
		roots, renderer, store,
		NewActivator(control, time.Second, log),
		nil,
		log,
	)
	return &stack{svc: svc, baseDir: baseDir, available: available, runner: runner}
}

func bundle(subdomain string) domain.DeploymentRequest {
	return domain.DeploymentRequest{
		ProjectID: "p-" + subdomain,
		Subdomain: subdomain,
		Files: []domain.FileEntry{
			{Path: "index.html", Content: []byte("<h1>hi</h1>")},
			{Path: "static/css/main.css", Content: []byte("body{}")},
		},
	}
}

func TestIntegration_DeployAndDelete(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	result, err := s.svc.Deploy(ctx, bundle("demo"))
	require.NoError(t, err)

	assert.Equal(t, "https://demo.digitel.site", result.URL)
	assert.FileExists(t, filepath.Join(s.baseDir, "demo", "static", "css", "main.css"))
	config, err := os.ReadFile(filepath.Join(s.available, "demo.digitel.site.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "DocumentRoot "+filepath.Join(s.baseDir, "demo"))
	assert.Equal(t, []string{
		"a2ensite -q demo.digitel.site.conf",
		"apache2ctl configtest",
		"systemctl reload apache2",
	}, s.runner.Calls()[:3])

	require.NoError(t, s.svc.Delete(ctx, "demo"))
	assert.NoDirExists(t, filepath.Join(s.baseDir, "demo"))
	assert.NoFileExists(t, filepath.Join(s.available, "demo.digitel.site.conf"))

	// Deleting again, or deleting something never deployed, succeeds.
	assert.NoError(t, s.svc.Delete(ctx, "demo"))
	calls := len(s.runner.Calls())
	assert.NoError(t, s.svc.Delete(ctx, "never-deployed"))
	assert.Len(t, s.runner.Calls(), calls, "nothing to disable means no reload")
}

func TestIntegration_DeployCreatesRegistryRecord(t *testing.T) {
	s := newStack(t)
	store, err := registry.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	s.svc.registry = store
	ctx := context.Background()

	result, err := s.svc.Deploy(ctx, bundle("Demo"))
	require.NoError(t, err)

	record, err := store.GetProject(ctx, "p-Demo")
	require.NoError(t, err)
	assert.Equal(t, domain.SiteStatusActive, record.Status)
	assert.Equal(t, "demo", record.Subdomain)
	assert.Equal(t, result.URL, record.URL)

	avail, err := s.svc.Check(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, avail.Available)

	// A failed run leaves a failed record behind.
	req := bundle("broken")
	req.Files = append(req.Files, domain.FileEntry{Path: "../escape.txt", Content: []byte("x")})
	_, err = s.svc.Deploy(ctx, req)
	require.ErrorIs(t, err, domain.ErrPathTraversal)

	record, err = store.GetProject(ctx, "p-broken")
	require.NoError(t, err)
	assert.Equal(t, domain.SiteStatusFailed, record.Status)
}

func TestIntegration_ConcurrentSameSubdomain(t *testing.T) {
	s := newStack(t)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.svc.Deploy(context.Background(), bundle("race"))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)
	assert.FileExists(t, filepath.Join(s.baseDir, "race", "index.html"))
}

func TestIntegration_FailedActivationLeavesNothing(t *testing.T) {
	s := newStack(t)
	s.runner.On("apache2ctl configtest", command.Result{Err: &command.ExitError{
		Command:  "apache2ctl configtest",
		ExitCode: 1,
		Output:   "AH00526: Syntax error",
	}})

	_, err := s.svc.Deploy(context.Background(), bundle("broken"))

	assert.ErrorIs(t, err, domain.ErrConfigValidationFailed)
	assert.NoDirExists(t, filepath.Join(s.baseDir, "broken"))
	assert.NoFileExists(t, filepath.Join(s.available, "broken.digitel.site.conf"))
	assert.False(t, s.runner.Called("find"))

	// The subdomain can be deployed once the server accepts the config.
	s.runner.On("apache2ctl configtest", command.Result{Output: "Syntax OK"})
	_, err = s.svc.Deploy(context.Background(), bundle("broken"))
	assert.NoError(t, err)
}

func TestIntegration_TraversalIsRolledBack(t *testing.T) {
	s := newStack(t)
	req := bundle("evil")
	req.Files = append(req.Files, domain.FileEntry{Path: "../../outside.txt", Content: []byte("x")})

	_, err := s.svc.Deploy(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrPathTraversal)
	assert.NoDirExists(t, filepath.Join(s.baseDir, "evil"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(s.baseDir), "outside.txt"))
	assert.Empty(t, s.runner.Calls())
}
