package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// MailConfig holds SMTP settings for user alerts and the admin summary.
// Email is disabled when no username is configured.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
	Admin    string `mapstructure:"admin"`
}

func (config MailConfig) Enabled() bool {
	return config.Username != ""
}

// From is the sender address, defaulting to the SMTP username.
func (config MailConfig) From() string {
	if config.Sender != "" {
		return config.Sender
	}
	return config.Username
}

// AdminAddress receives run summaries, defaulting to the sender.
func (config MailConfig) AdminAddress() string {
	if config.Admin != "" {
		return config.Admin
	}
	return config.From()
}

func (config MailConfig) validate() error {
	if !config.Enabled() {
		return nil
	}

	var missingFields []string

	if config.Host == "" {
		missingFields = append(missingFields, "host")
	}

	if config.Port == 0 {
		missingFields = append(missingFields, "port")
	}

	if config.Password == "" {
		missingFields = append(missingFields, "password")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config MailConfig) bindEnvironmentVariables() error {
	return errors.Join(
		viper.BindEnv("mail.host", "MAIL_HOST"),
		viper.BindEnv("mail.username", "MAIL_USERNAME"),
		viper.BindEnv("mail.password", "MAIL_PASSWORD"),
		viper.BindEnv("mail.sender", "MAIL_SENDER"),
		viper.BindEnv("mail.admin", "MAIL_ADMIN"),
	)
}
