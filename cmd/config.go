package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "schemasync"
	configFileType = "yaml"

	cfgKeyDatabaseURL   = "database_url"
	cfgKeyMigrationsDir = "migrations_dir"
	cfgKeySchemaFile    = "schema_file"
	cfgKeyLogLevel      = "log_level"

	defaultMigrationsDir = "migrations"
	defaultSchemaFile    = "schema.yaml"
	defaultLogLevel      = "info"
)

// flagKeys maps persistent flags onto config keys; a flag that was set wins
// over the environment and the config file.
var flagKeys = map[string]string{
	"database-url": cfgKeyDatabaseURL,
	"dir":          cfgKeyMigrationsDir,
	"schema":       cfgKeySchemaFile,
	"log-level":    cfgKeyLogLevel,
}

// loadConfig resolves configuration from flags, environment, the optional
// schemasync.yaml and defaults, in that order. A missing config file is not an
// error unless it was named explicitly.
func loadConfig(cmd *cobra.Command, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyMigrationsDir, defaultMigrationsDir)
	v.SetDefault(cfgKeySchemaFile, defaultSchemaFile)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)

	v.SetEnvPrefix("SCHEMASYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(cfgKeyDatabaseURL, "DATABASE_URL", "SCHEMASYNC_DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	return v, nil
}
