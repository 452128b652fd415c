// Package contains implements the contains subcommand: verify that an
// existing absolute path lies inside the jail root.
package contains

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pathjail/internal/conf"
	"github.com/tphakala/pathjail/jail"
)

// Command creates the contains command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contains [path]",
		Short: "Check that an absolute path is inside the jail root",
		Long: `Contains canonicalizes an existing absolute path (resolving all symlinks)
and verifies it lies inside the jail root. On success the canonical path is
printed; any escape, missing path, or broken symlink is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContains(settings, args[0])
		},
	}
	return cmd
}

func runContains(settings *conf.Settings, path string) error {
	if settings.Jail.Root == "" {
		return fmt.Errorf("no jail root configured, set --root or jail.root in pathjail.yaml")
	}

	j, err := jail.New(settings.Jail.Root,
		jail.WithLongPathThreshold(settings.Jail.LongPathThreshold))
	if err != nil {
		return err
	}

	resolved, err := j.Contains(path)
	if err != nil {
		return err
	}

	fmt.Println(resolved)
	return nil
}
