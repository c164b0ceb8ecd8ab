// Package cli implements the command line adapter for sitehost.
// Commands delegate to the app layer and the provisioning use case.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/app"
	"github.com/bnema/sitehost/pkg/version"
)

// bootstrap loads the config, logger and provisioning core.
var bootstrap = app.Bootstrap

// NewRootCmd creates the root command for the sitehost CLI.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sitehost",
		Short: "sitehost - static site provisioning for a shared web server",
		Long: `sitehost publishes uploaded static sites under <name>.<domain> on an
Apache or nginx host. Each deployment writes the document root and the
virtual host, enables the site and reloads the server, or rolls every step
back when one of them fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newDeployCmd(&configPath))
	rootCmd.AddCommand(newDeleteCmd(&configPath))
	rootCmd.AddCommand(newCheckCmd(&configPath))
	rootCmd.AddCommand(newRenderCmd(&configPath))
	rootCmd.AddCommand(newListCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("sitehost %s\n", version.Version())
			cmd.Printf("Commit: %s\n", version.Commit())
			cmd.Printf("Build Date: %s\n", version.BuildDate())
		},
	}
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, commit, date string) {
	version.Set(v, commit, date)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
