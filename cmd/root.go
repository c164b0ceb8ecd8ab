// Package cmd is the process entry point of the sitehost binary.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/sitehost/internal/adapters/in/cli"
	"github.com/bnema/sitehost/internal/adapters/in/cli/ui/styles"
)

// Execute runs the CLI with the build information and exits non-zero on
// failure. SIGINT and SIGTERM cancel the command context.
func Execute(version, commit, date string) {
	cli.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln(styles.RenderError(err.Error()))
		stop()
		os.Exit(1)
	}
}
