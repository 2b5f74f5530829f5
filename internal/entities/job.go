package entities

import "time"

const (
	MaxTitleLength    = 200
	MaxCompanyLength  = 100
	MaxLocationLength = 100
)

// Job is a posting normalized from one source response. Extractors fill
// everything except Fingerprint and CreatedAt, which the repository sets on
// insert. A stored Job is never updated.
type Job struct {
	ID          uint
	Title       string
	Company     string
	Location    string
	DatePosted  string
	Source      string
	SearchRole  string
	Fingerprint string `gorm:"uniqueIndex;size:32"`
	CreatedAt   time.Time
}
