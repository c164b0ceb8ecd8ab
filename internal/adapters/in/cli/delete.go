package cli

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/bnema/sitehost/internal/adapters/out/registry"
	"github.com/bnema/sitehost/internal/domain"
)

// confirm asks a yes/no question on the terminal.
var confirm = func(message string) (bool, error) {
	var ok bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, fmt.Errorf("survey failed: %w", err)
	}
	return ok, nil
}

// newDeleteCmd creates the delete command.
func newDeleteCmd(configPath *string) *cobra.Command {
	var (
		yes       bool
		projectID string
	)

	cmd := &cobra.Command{
		Use:   "delete <subdomain>",
		Short: "Take a site offline and remove its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()
			sub := args[0]

			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete %s and all of its files?", sub))
				if err != nil {
					return err
				}
				if !ok {
					return cliWriteLine(out, cliRenderWarning("Deletion cancelled"))
				}
			}

			core, _, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			name, err := core.Service.ValidateName(sub)
			if err != nil {
				_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderFailure("deletion", err))
				return err
			}
			sub = name.String()

			if err := core.Service.Delete(ctx, sub); err != nil {
				_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderFailure("deletion", err))
				return err
			}

			if err := markDeleted(cmd, core.Registry, projectID, sub); err != nil {
				_ = cliWriteLine(cmd.ErrOrStderr(), cliRenderWarning(err.Error()))
			}
			return cliWriteLine(out, cliRenderSuccess("Project deleted successfully"))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project id to mark deleted (looked up by subdomain when empty)")

	return cmd
}

// markDeleted moves the project record of sub to deleted. A subdomain with
// no record is left alone.
func markDeleted(cmd *cobra.Command, store *registry.Store, projectID, sub string) error {
	ctx := commandContext(cmd)

	if projectID == "" {
		record, err := store.FindBySubdomain(ctx, sub)
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up project for %s: %w", sub, err)
		}
		if record.Status == domain.SiteStatusDeleted {
			return nil
		}
		projectID = record.ProjectID
	}

	if err := store.UpdateStatus(ctx, projectID, domain.SiteStatusDeleted, ""); err != nil {
		return fmt.Errorf("site removed but project %s was not marked deleted: %w", projectID, err)
	}
	return nil
}
