package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DBConfig points at the sqlite database holding jobs and user profiles.
// ConnectionString is a file path such as "data/jobalert.db" or a sqlite DSN
// like "file::memory:?cache=shared"; it is taken from DB_CONNECTION_STRING.
type DBConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
}

func (config DBConfig) validate() error {
	if config.ConnectionString == "" {
		return fmt.Errorf("missing variable: DB_CONNECTION_STRING (sqlite database path)")
	}
	return nil
}

func (config DBConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("db.connection_string", "DB_CONNECTION_STRING")
}
