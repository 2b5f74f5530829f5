package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

type ScheduleConfig struct {
	Specs []string `mapstructure:"specs"`
}

func (config ScheduleConfig) validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, spec := range config.Specs {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", spec, err)
		}
	}
	return nil
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
