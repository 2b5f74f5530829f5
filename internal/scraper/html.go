package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/maxaizer/jobalert/internal/entities"
)

const unknownCompany = "Unknown"

// htmlField is either a CSS selector evaluated inside the container or a
// literal value used verbatim (e.g. a company name for single-employer sites).
type htmlField struct {
	selector string
	literal  string
}

func newHTMLField(value string) (htmlField, error) {
	value = strings.TrimSpace(value)
	if !looksLikeSelector(value) {
		return htmlField{literal: value}, nil
	}
	if _, err := cascadia.Compile(value); err != nil {
		return htmlField{}, fmt.Errorf("invalid selector %q: %w", value, err)
	}
	return htmlField{selector: value}, nil
}

func (f htmlField) text(s *goquery.Selection) string {
	if f.selector == "" {
		return f.literal
	}
	return truncate(cleanText(s.Find(f.selector).First().Text()), maxExtractedLength)
}

func looksLikeSelector(value string) bool {
	return strings.HasPrefix(value, ".") || strings.HasPrefix(value, "#") || strings.HasPrefix(value, "[")
}

type HTMLExtractor struct {
	container string
	title     htmlField
	company   htmlField
	location  htmlField
	posted    htmlField
}

func NewHTMLExtractor(selectors map[string]string) (*HTMLExtractor, error) {
	container := strings.TrimSpace(selectors["container"])
	if container == "" {
		return nil, fmt.Errorf("missing container selector")
	}
	if _, err := cascadia.Compile(container); err != nil {
		return nil, fmt.Errorf("invalid container selector %q: %w", container, err)
	}

	e := &HTMLExtractor{container: container}

	fields := []struct {
		key      string
		target   *htmlField
		required bool
	}{
		{"title", &e.title, true},
		{"location", &e.location, true},
		{"company", &e.company, false},
		{"date_posted", &e.posted, false},
	}

	for _, f := range fields {
		value, ok := selectors[f.key]
		if !ok && f.required {
			return nil, fmt.Errorf("missing %s selector", f.key)
		}
		field, err := newHTMLField(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.target = field
	}

	return e, nil
}

func (e *HTMLExtractor) Extract(body []byte, source, role string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var results []Result
	doc.Find(e.container).Each(func(_ int, s *goquery.Selection) {
		results = append(results, e.extractEntry(s, source, role))
	})
	return results, nil
}

func (e *HTMLExtractor) extractEntry(s *goquery.Selection, source, role string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = skipped(fmt.Sprintf("selector error: %v", r))
		}
	}()

	title := e.title.text(s)
	if title == "" {
		return skipped("empty title")
	}
	location := e.location.text(s)
	if location == "" {
		return skipped("empty location")
	}

	company := e.company.text(s)
	if company == "" {
		company = unknownCompany
	}

	return Result{Job: entities.Job{
		Title:      title,
		Company:    company,
		Location:   location,
		DatePosted: e.posted.text(s),
		Source:     strings.TrimSpace(source),
		SearchRole: strings.TrimSpace(role),
	}}
}
