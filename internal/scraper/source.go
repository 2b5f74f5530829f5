package scraper

import (
	"fmt"
	"strings"

	"github.com/maxaizer/jobalert/internal/config"
)

const rolePlaceholder = "{role}"

type Strategy string

const (
	StrategyHTMLSection   Strategy = "html_section"
	StrategyJSONSelection Strategy = "json_selection"
)

// Source is a configured career site with its extractor chosen once at load time.
type Source struct {
	Name        string
	URLTemplate string
	Extractor   Extractor
}

func NewSource(cfg config.SourceConfig) (*Source, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("source name is empty")
	}
	if !strings.Contains(cfg.URL, rolePlaceholder) {
		return nil, fmt.Errorf("source %s: url has no %s placeholder", cfg.Name, rolePlaceholder)
	}

	var extractor Extractor
	var err error

	switch Strategy(normalizeStrategy(cfg.Type)) {
	case StrategyHTMLSection:
		extractor, err = NewHTMLExtractor(cfg.Selectors)
	case StrategyJSONSelection:
		extractor, err = NewJSONExtractor(cfg.Selectors)
	default:
		err = fmt.Errorf("unknown extraction type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}

	return &Source{Name: cfg.Name, URLTemplate: cfg.URL, Extractor: extractor}, nil
}

func NewSources(cfgs []config.SourceConfig) ([]*Source, error) {
	sources := make([]*Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		source, err := NewSource(cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// URL substitutes the role into the template, encoding spaces as %20.
func (s *Source) URL(role string) string {
	return strings.ReplaceAll(s.URLTemplate, rolePlaceholder, strings.ReplaceAll(role, " ", "%20"))
}

func normalizeStrategy(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
}
