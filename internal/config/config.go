// Package config loads server configuration from a statchain.yaml file
// (if present), environment variables with the STATCHAIN_ prefix and
// built-in defaults. Environment variables override the file, and the
// file overrides the defaults.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	*viper.Viper
}

// Defaults
const (
	DefaultPort     = 8089
	DefaultStrategy = "eager"
)

// Load reads the configuration. A missing config file is not an error;
// any other read failure is.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("local-only", true)
	v.SetDefault("debug", false)
	v.SetDefault("strategy", DefaultStrategy)

	v.SetConfigName("statchain")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/statchain/")

	v.SetEnvPrefix("STATCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{v}, nil
}
