// Package join implements the join subcommand: validate a relative path
// against the jail root and print the resolved absolute path.
package join

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pathjail/internal/conf"
	"github.com/tphakala/pathjail/jail"
)

// Command creates the join command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join [path]",
		Short: "Join a relative path to the jail root and print the result",
		Long: `Join resolves a relative path against the jail root, following symlinks
component by component, and prints the resulting absolute path. Trailing
components that do not exist yet are allowed; the path fails if any resolved
component would land outside the root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(settings, args[0])
		},
	}
	return cmd
}

func runJoin(settings *conf.Settings, path string) error {
	if settings.Jail.Root == "" {
		return fmt.Errorf("no jail root configured, set --root or jail.root in pathjail.yaml")
	}

	j, err := jail.New(settings.Jail.Root,
		jail.WithLongPathThreshold(settings.Jail.LongPathThreshold))
	if err != nil {
		return err
	}

	resolved, err := j.Join(path)
	if err != nil {
		return err
	}

	fmt.Println(resolved)
	return nil
}
