package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bnema/sitehost/pkg/validation"
)

// Ownership hands document roots over to the serving process's identity.
type Ownership struct {
	Runner  Runner
	BaseDir string // every path must live strictly inside it
	Owner   string // user:group, e.g. www-data:www-data
}

// Apply chowns path recursively to o.Owner and normalizes modes: 0755 for
// directories, 0644 for files. It refuses anything that is not a direct
// child of o.BaseDir.
func (o Ownership) Apply(ctx context.Context, path string) error {
	if err := o.checkScope(path); err != nil {
		return err
	}
	clean := filepath.Clean(path)

	if o.Owner != "" {
		if _, err := o.Runner.Run(ctx, "chown", "-R", "--", o.Owner, clean); err != nil {
			return fmt.Errorf("failed to set owner of %s: %w", clean, err)
		}
	}
	if _, err := o.Runner.Run(ctx, "find", clean, "-type", "d", "-exec", "chmod", "755", "{}", "+"); err != nil {
		return fmt.Errorf("failed to set directory modes under %s: %w", clean, err)
	}
	if _, err := o.Runner.Run(ctx, "find", clean, "-type", "f", "-exec", "chmod", "644", "{}", "+"); err != nil {
		return fmt.Errorf("failed to set file modes under %s: %w", clean, err)
	}
	return nil
}

func (o Ownership) checkScope(path string) error {
	if o.BaseDir == "" {
		return fmt.Errorf("ownership base directory is not configured")
	}
	if err := validation.ValidateDirectChild(o.BaseDir, path); err != nil {
		return fmt.Errorf("refusing to change ownership: %w", err)
	}
	return nil
}
