package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/adapters/in/cli/ui/styles"
	"github.com/bnema/sitehost/internal/domain"
)

// newCheckCmd creates the check command.
func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <subdomain>",
		Short: "Check whether a subdomain can be claimed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			avail, err := core.Service.Check(commandContext(cmd), args[0])
			if err != nil {
				_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderFailure("check", err))
				return err
			}

			host := domain.Subdomain(avail.Subdomain).Host(core.Config.Sites.Domain)
			if avail.Available {
				return cliWriteLine(cmd.OutOrStdout(), styles.RenderBadge("available")+" "+host)
			}
			return cliWriteLine(cmd.OutOrStdout(), styles.RenderBadge("taken")+" "+host+" "+cliRenderMuted(avail.Reason))
		},
	}
}
