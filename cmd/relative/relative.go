// Package relative implements the relative subcommand: print the jail-relative
// form of a contained absolute path.
package relative

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/pathjail/internal/conf"
	"github.com/tphakala/pathjail/jail"
)

// Command creates the relative command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relative [path]",
		Short: "Print an absolute path's location relative to the jail root",
		Long: `Relative verifies an absolute path the way contains does, then prints its
location relative to the jail root. The root itself prints as ".".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelative(settings, args[0])
		},
	}
	return cmd
}

func runRelative(settings *conf.Settings, path string) error {
	if settings.Jail.Root == "" {
		return fmt.Errorf("no jail root configured, set --root or jail.root in pathjail.yaml")
	}

	j, err := jail.New(settings.Jail.Root,
		jail.WithLongPathThreshold(settings.Jail.LongPathThreshold))
	if err != nil {
		return err
	}

	rel, err := j.Relative(path)
	if err != nil {
		return err
	}

	fmt.Println(rel)
	return nil
}
