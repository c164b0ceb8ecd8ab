package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/app"
)

// newServeCmd creates the serve command.
func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the provisioning API",
		Long: `Start the HTTP API that accepts site uploads. The server refuses to start
without server.api_secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, log, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			return app.Serve(commandContext(cmd), core, log)
		},
	}
}
