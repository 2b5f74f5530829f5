package config

import (
	"errors"

	"github.com/spf13/viper"
)

// TelegramConfig describes the channel recent jobs are broadcast to.
// Broadcasting is disabled when the token is empty.
type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

func (config TelegramConfig) Enabled() bool {
	return config.Token != "" && config.ChannelID != ""
}

func (config TelegramConfig) bindEnvironmentVariables() error {
	return errors.Join(
		viper.BindEnv("telegram.token", "TELEGRAM_TOKEN"),
		viper.BindEnv("telegram.channel_id", "TELEGRAM_CHANNEL_ID"),
	)
}
