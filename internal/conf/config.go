// Package conf handles the configuration of pathjail: defaults, config file
// discovery, and flag binding for the CLI.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tphakala/pathjail/internal/errors"
)

// JailSettings configures jail construction.
type JailSettings struct {
	Root string `mapstructure:"root"`
	// LongPathThreshold is the maximum length at which a Windows
	// extended-length marker is stripped from returned paths; 0 disables
	// stripping. Ignored on Unix.
	LongPathThreshold int `mapstructure:"longpaththreshold"`
}

// LogSettings configures optional file logging.
type LogSettings struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxsize"`
	MaxBackups int    `mapstructure:"maxbackups"`
	MaxAgeDays int    `mapstructure:"maxage"`
}

// Settings contains all runtime configuration.
type Settings struct {
	Debug bool         `mapstructure:"debug"`
	Jail  JailSettings `mapstructure:"jail"`
	Log   LogSettings  `mapstructure:"log"`
}

// setDefaultConfig registers defaults for all settings.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("jail.root", "")
	viper.SetDefault("jail.longpaththreshold", 250)

	viper.SetDefault("log.enabled", false)
	viper.SetDefault("log.path", "pathjail.log")
	viper.SetDefault("log.maxsize", 100)
	viper.SetDefault("log.maxbackups", 3)
	viper.SetDefault("log.maxage", 28)
}

// configPaths returns the directories searched for pathjail.yaml, in order.
func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pathjail"))
	}
	return paths
}

// Load reads configuration from defaults, an optional pathjail.yaml, and the
// environment. A missing config file is not an error; a malformed one is.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("pathjail")
	viper.SetConfigType("yaml")
	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("pathjail")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("failed to read config file: %w", err)).
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("failed to unmarshal config: %w", err)).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return settings, nil
}

// SyncViper copies viper's final values (flags, env, file, defaults merged)
// back into the settings struct after flag parsing.
func SyncViper(settings *Settings) error {
	if err := viper.Unmarshal(settings); err != nil {
		return errors.New(fmt.Errorf("failed to sync config: %w", err)).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
