package scraper

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/maxaizer/jobalert/internal/entities"
)

const maxExtractedLength = 200

// Extractor turns one raw response body into jobs for a (source, role) pair.
// A document that cannot be parsed at all yields an error; problems with
// individual entries are reported through Result.Reason.
type Extractor interface {
	Extract(body []byte, source, role string) ([]Result, error)
}

// Result is the outcome for one entry of a response: either a job or the
// reason it was skipped.
type Result struct {
	Job    entities.Job
	Reason string
}

func (r Result) Skipped() bool {
	return r.Reason != ""
}

func skipped(reason string) Result {
	return Result{Reason: reason}
}

// cleanText collapses whitespace and drops control characters.
func cleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}
