package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	nowKeywordRegex   = regexp.MustCompile(`(?i)\b(just now|today|now)\b`)
	yesterdayRegex    = regexp.MustCompile(`(?i)\byesterday\b`)
	relativeDateRegex = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day|week|month)s?\s*ago`)
	ordinalRegex      = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)\b`)
	septRegex         = regexp.MustCompile(`(?i)\bsept\b\.?`)
	digitsRegex       = regexp.MustCompile(`^\d+$`)
)

type layout struct {
	format  string
	hasYear bool
}

// Tried in order; the first layout that parses wins, so M/D/Y beats D/M/Y
// for ambiguous numeric dates.
var layouts = []layout{
	{"1/2/2006", true},
	{"2/1/2006", true},
	{"1/2/06", true},
	{"2/1/06", true},
	{"January 2, 2006", true},
	{"Jan 2, 2006", true},
	{"2 January 2006", true},
	{"2 Jan 2006", true},
	{"January 2", false},
	{"Jan 2", false},
	{"2 January", false},
	{"2 Jan", false},
	{"2006-01-02", true},
	{"2-1-2006", true},
	{"1-2-2006", true},
	{"1/2", false},
	{"2/1", false},
}

// Normalizer turns the free-text dates found on career sites into absolute
// times. It is safe for concurrent use.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithClock replaces the clock used for relative phrases and missing years.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize returns the absolute time described by text. The second result is
// false when no rule recognizes the text; callers treat that as "recent".
func (n *Normalizer) Normalize(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	now := n.now()

	if nowKeywordRegex.MatchString(text) {
		return now, true
	}

	if yesterdayRegex.MatchString(text) {
		return now.AddDate(0, 0, -1), true
	}

	if t, ok := parseRelative(text, now); ok {
		return t, true
	}

	cleaned := ordinalRegex.ReplaceAllString(text, "$1")
	cleaned = septRegex.ReplaceAllString(cleaned, "Sep")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if t, ok := parseLayouts(cleaned, now); ok {
		return t, true
	}

	return parseFuzzy(cleaned, now)
}

func parseLayouts(text string, now time.Time) (time.Time, bool) {
	for _, l := range layouts {
		t, err := time.ParseInLocation(l.format, text, now.Location())
		if err != nil {
			continue
		}
		if !l.hasYear {
			withYear := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			// Feb 29 outside a leap year
			if withYear.Day() != t.Day() {
				continue
			}
			t = withYear
		}
		return t, true
	}
	return time.Time{}, false
}

// IsRecent reports whether text describes a moment no older than
// thresholdDays. Empty or unrecognized text counts as recent.
func (n *Normalizer) IsRecent(text string, thresholdDays int) bool {
	t, ok := n.Normalize(text)
	if !ok {
		return true
	}
	threshold := n.now().AddDate(0, 0, -thresholdDays)
	return !t.Before(threshold)
}

func parseRelative(text string, now time.Time) (time.Time, bool) {
	match := relativeDateRegex.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	amount, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}

	switch strings.ToLower(match[2]) {
	case "minute":
		return now.Add(-time.Duration(amount) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(amount) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -amount), true
	case "week":
		return now.AddDate(0, 0, -7*amount), true
	case "month":
		return now.AddDate(0, -amount, 0), true
	}
	return time.Time{}, false
}

// parseFuzzy drops leading words ("Posted on", "Date:") until the rest reads
// as a date. A bare number left after dropping words is not taken as a date.
func parseFuzzy(text string, now time.Time) (time.Time, bool) {
	tokens := strings.Fields(text)

	suffixes := make([]string, 0, len(tokens))
	for i := range tokens {
		if i > 0 && i == len(tokens)-1 && digitsRegex.MatchString(tokens[i]) {
			break
		}
		suffixes = append(suffixes, strings.Join(tokens[i:], " "))
	}

	for _, suffix := range suffixes[min(1, len(suffixes)):] {
		if t, ok := parseLayouts(suffix, now); ok {
			return t, true
		}
	}

	for _, suffix := range suffixes {
		if t, ok := parseAny(suffix, now.Location()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAny(text string, loc *time.Location) (t time.Time, ok bool) {
	// dateparse has panicked on malformed input in the past
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	// year-less forms are left to the layout rules
	if parsed.Year() == 0 {
		return time.Time{}, false
	}
	return parsed, true
}
