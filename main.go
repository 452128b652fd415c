package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tphakala/pathjail/cmd"
	"github.com/tphakala/pathjail/internal/conf"
	"github.com/tphakala/pathjail/internal/logging"
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.InitWithLevel(level)

	if settings.Log.Enabled {
		fileLogger, closeLogger, err := logging.NewFileLogger(
			settings.Log.Path, "pathjail", level,
			logging.FileConfig{
				MaxSizeMB:  settings.Log.MaxSizeMB,
				MaxBackups: settings.Log.MaxBackups,
				MaxAgeDays: settings.Log.MaxAgeDays,
			})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to open log file: %v\n", err)
			return 1
		}
		defer func() {
			if err := closeLogger(); err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to close log file: %v\n", err)
			}
		}()
		slog.SetDefault(fileLogger)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
