package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/adapters/in/cli/ui/styles"
	"github.com/bnema/sitehost/internal/domain"
)

// newListCmd creates the list command.
func newListCmd(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List project records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := core.Registry.List(commandContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := cliWriteLine(out, cliRenderTitle("Projects")); err != nil {
				return err
			}

			shown := 0
			for _, r := range records {
				if !all && r.Status == domain.SiteStatusDeleted {
					continue
				}
				line := fmt.Sprintf("%s %s %s", styles.RenderBadge(string(r.Status)), r.Subdomain, cliRenderMuted(r.ProjectID))
				if r.URL != "" {
					line += " " + cliRenderURL(r.URL)
				}
				if err := cliWriteLine(out, styles.RenderListItem(line)); err != nil {
					return err
				}
				shown++
			}
			if shown == 0 {
				return cliWriteLine(out, cliRenderMuted("No projects"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include deleted projects")

	return cmd
}
