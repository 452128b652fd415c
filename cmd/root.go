// Package cmd assembles the pathjail command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/pathjail/cmd/contains"
	"github.com/tphakala/pathjail/cmd/join"
	"github.com/tphakala/pathjail/cmd/relative"
	"github.com/tphakala/pathjail/internal/conf"
)

// RootCommand creates and returns the root command with all subcommands
// attached and global flags bound.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pathjail",
		Short: "Validate untrusted paths against a directory jail",
		Long: `pathjail confines filesystem paths to a root directory.

It resolves symlinks and ".." components against the real filesystem and
rejects any path whose final location would fall outside the root.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Pull flag and env overrides into the settings struct before
			// any subcommand runs.
			return conf.SyncViper(settings)
		},
	}

	rootCmd.AddCommand(join.Command(settings))
	rootCmd.AddCommand(contains.Command(settings))
	rootCmd.AddCommand(relative.Command(settings))

	if err := defineGlobalFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	return rootCmd
}

// defineGlobalFlags defines flags shared by all subcommands and binds them
// to viper so config file, environment, and flags merge into one view.
func defineGlobalFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Jail.Root, "root", "r", settings.Jail.Root, "Jail root directory")
	rootCmd.PersistentFlags().IntVar(&settings.Jail.LongPathThreshold, "long-path-threshold", settings.Jail.LongPathThreshold,
		"Length above which Windows extended-length markers are kept on output (0 keeps them always)")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindPFlag("jail.root", rootCmd.PersistentFlags().Lookup("root")); err != nil {
		return fmt.Errorf("failed to bind root flag: %w", err)
	}
	if err := viper.BindPFlag("jail.longpaththreshold", rootCmd.PersistentFlags().Lookup("long-path-threshold")); err != nil {
		return fmt.Errorf("failed to bind long-path-threshold flag: %w", err)
	}
	return nil
}
