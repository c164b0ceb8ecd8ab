package cli

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/domain"
)

type deployOptions struct {
	subdomain     string
	projectID     string
	projectName   string
	backendURL    string
	backendPrefix string
}

// newDeployCmd creates the deploy command.
func newDeployCmd(configPath *string) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy <dir>",
		Short: "Deploy a local directory as a site",
		Long: `Deploy publishes the files under <dir> at <subdomain>.<domain>. The
directory must contain index.html at its root. A pending project record is
created first and moved to active or failed by the deployment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, *configPath, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.subdomain, "subdomain", "s", "", "Subdomain to publish under")
	cmd.Flags().StringVarP(&opts.projectID, "project", "p", "", "Project id (generated when empty)")
	cmd.Flags().StringVarP(&opts.projectName, "name", "n", "", "Project name (defaults to the directory name)")
	cmd.Flags().StringVar(&opts.backendURL, "backend-url", "", "Proxy API calls to this URL")
	cmd.Flags().StringVar(&opts.backendPrefix, "backend-prefix", "/api", "Path prefix forwarded to --backend-url")
	_ = cmd.MarkFlagRequired("subdomain")

	return cmd
}

func runDeploy(cmd *cobra.Command, configPath, dir string, opts deployOptions) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	files, err := collectFiles(dir)
	if err != nil {
		return err
	}

	core, _, cleanup, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	sub, err := core.Service.ValidateName(opts.subdomain)
	if err != nil {
		_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderFailure("deployment", err))
		return err
	}

	projectID := opts.projectID
	if projectID == "" {
		projectID = uuid.NewString()
	}
	projectName := opts.projectName
	if projectName == "" {
		projectName = filepath.Base(filepath.Clean(dir))
	}

	if _, err := core.Registry.Create(ctx, projectID, projectName, sub.String()); err != nil {
		return fmt.Errorf("failed to register project: %w", err)
	}

	req := domain.DeploymentRequest{
		ProjectID: projectID,
		Subdomain: sub.String(),
		Files:     files,
	}
	if opts.backendURL != "" {
		req.Backend = &domain.BackendProxy{URL: opts.backendURL, PathPrefix: opts.backendPrefix}
	}

	if err := cliWriteLine(out, cliRenderInfo(fmt.Sprintf("Deploying %d files from %s", len(files), dir))); err != nil {
		return err
	}

	result, err := core.Service.Deploy(ctx, req)
	if err != nil {
		_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderFailure("deployment", err))
		return err
	}

	lines := []string{
		cliRenderSuccess("Project deployed successfully"),
		cliRenderMeta("URL:", cliRenderURL(result.URL)),
		cliRenderMeta("Project:", result.ProjectID),
		cliRenderMeta("Run:", result.RunID),
		cliRenderMeta("Document root:", result.DocumentRoot),
		cliRenderMeta("Config:", result.ConfigPath),
	}
	for _, line := range lines {
		if err := cliWriteLine(out, line); err != nil {
			return err
		}
	}
	return nil
}

// collectFiles reads every regular file under dir into bundle entries with
// slash-separated paths relative to dir.
func collectFiles(dir string) ([]domain.FileEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []domain.FileEntry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, domain.FileEntry{
			Path:     filepath.ToSlash(rel),
			Content:  content,
			MimeType: mime.TypeByExtension(filepath.Ext(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s contains no files", domain.ErrInvalidInput, dir)
	}
	return files, nil
}
