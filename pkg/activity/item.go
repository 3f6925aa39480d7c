// Package activity turns raw GitHub records into a ranked, rendered list of recent activity.
package activity

import "time"

// UnknownDate is displayed when a source timestamp cannot be parsed.
const UnknownDate = "unknown-date"

// Kind identifies which source an Item came from.
type Kind int

const (
	KindCommit Kind = iota
	KindRepo
	KindBlog
)

func (k Kind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindRepo:
		return "repo"
	case KindBlog:
		return "blog"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Item is one normalized unit of activity. Which fields are set depends on Kind.
type Item struct {
	Timestamp time.Time `yaml:"-"`
	Kind      Kind      `yaml:"kind"`
	Date      string    `yaml:"date"`
	URL       string    `yaml:"url"`

	// Commit and repository fields.
	Repo     string `yaml:"repo,omitempty"`
	SHA      string `yaml:"sha,omitempty"`
	ShortSHA string `yaml:"short_sha,omitempty"`
	Message  string `yaml:"message,omitempty"`
	Name     string `yaml:"name,omitempty"`

	// Blog fields.
	Title     string `yaml:"title,omitempty"`
	SourceURL string `yaml:"source_url,omitempty"`
}

// newer reports whether a sorts strictly before b in descending time order.
func newer(a, b Item) bool {
	return a.Timestamp.After(b.Timestamp)
}

// formatDate returns the UTC calendar date of t, or UnknownDate for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return UnknownDate
	}
	return t.UTC().Format("2006-01-02")
}
