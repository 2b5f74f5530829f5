package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxaizer/jobalert/internal/entities"
)

const companyNameKey = "company_name"

type JSONExtractor struct {
	field          string
	title          string
	location       string
	posted         string
	defaultCompany string
}

func NewJSONExtractor(selectors map[string]string) (*JSONExtractor, error) {
	e := &JSONExtractor{
		field:          strings.TrimSpace(selectors["field"]),
		title:          strings.TrimSpace(selectors["title"]),
		location:       strings.TrimSpace(selectors["location"]),
		posted:         strings.TrimSpace(selectors["date_posted"]),
		defaultCompany: strings.TrimSpace(selectors["company"]),
	}

	var missing []string
	if e.field == "" {
		missing = append(missing, "field")
	}
	if e.title == "" {
		missing = append(missing, "title")
	}
	if e.location == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing selectors: %s", strings.Join(missing, ", "))
	}
	return e, nil
}

func (e *JSONExtractor) Extract(body []byte, source, role string) ([]Result, error) {
	var document map[string]json.RawMessage
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	raw, ok := document[e.field]
	if !ok {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("field %q is not a list: %w", e.field, err)
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, e.extractEntry(entry, source, role))
	}
	return results, nil
}

func (e *JSONExtractor) extractEntry(raw json.RawMessage, source, role string) Result {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		return skipped(fmt.Sprintf("entry is not an object: %v", err))
	}

	title := stringValue(entry[e.title])
	if title == "" {
		return skipped(fmt.Sprintf("missing %q", e.title))
	}
	location := stringValue(entry[e.location])
	if location == "" {
		return skipped(fmt.Sprintf("missing %q", e.location))
	}

	company := e.defaultCompany
	if value, ok := entry[companyNameKey]; ok {
		company = stringValue(value)
	}
	if company == "" {
		company = unknownCompany
	}

	var posted string
	if e.posted != "" {
		posted = stringValue(entry[e.posted])
	}

	return Result{Job: entities.Job{
		Title:      title,
		Company:    company,
		Location:   location,
		DatePosted: posted,
		Source:     strings.TrimSpace(source),
		SearchRole: strings.TrimSpace(role),
	}}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return cleanText(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return cleanText(string(encoded))
	}
}
