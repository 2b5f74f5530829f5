package config

import (
	"errors"
	"fmt"
	"time"
)

// SourceConfig is one career site. URL must contain the literal {role}
// placeholder; Type selects how Selectors are interpreted.
type SourceConfig struct {
	Name      string            `mapstructure:"name"`
	URL       string            `mapstructure:"url"`
	Type      string            `mapstructure:"type"`
	Selectors map[string]string `mapstructure:"selectors"`
}

type ScraperConfig struct {
	RequestTimeout       time.Duration  `mapstructure:"request_timeout"`
	SourceDelay          time.Duration  `mapstructure:"source_delay"`
	MaxRequestsPerSecond float32        `mapstructure:"max_requests_per_second"`
	RecencyThresholdDays int            `mapstructure:"recency_threshold_days"`
	JobRoles             []string       `mapstructure:"job_roles"`
	JobTypes             []string       `mapstructure:"job_types"`
	Locations            []string       `mapstructure:"locations"`
	Sources              []SourceConfig `mapstructure:"sources"`
}

func (config ScraperConfig) validate() error {
	var errs []error

	if len(config.Sources) == 0 {
		errs = append(errs, fmt.Errorf("no sources configured"))
	}

	for i, source := range config.Sources {
		if source.Name == "" || source.URL == "" || source.Type == "" {
			errs = append(errs, fmt.Errorf("source #%d: name, url and type are required", i))
		}
	}

	if config.RecencyThresholdDays < 0 {
		errs = append(errs, fmt.Errorf("recency_threshold_days must be non-negative"))
	}

	if config.SourceDelay < 0 {
		errs = append(errs, fmt.Errorf("source_delay must be non-negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
