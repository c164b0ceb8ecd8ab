package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/domain"
)

// newRenderCmd creates the render command.
func newRenderCmd(configPath *string) *cobra.Command {
	var backendURL, backendPrefix string

	cmd := &cobra.Command{
		Use:   "render <subdomain>",
		Short: "Print the virtual host a deployment would install",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			var backend *domain.BackendProxy
			if backendURL != "" {
				backend = &domain.BackendProxy{URL: backendURL, PathPrefix: backendPrefix}
			}

			config, err := core.Service.Render(commandContext(cmd), args[0], backend)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), config)
			return err
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend-url", "", "Proxy API calls to this URL")
	cmd.Flags().StringVar(&backendPrefix, "backend-prefix", "/api", "Path prefix forwarded to --backend-url")

	return cmd
}
