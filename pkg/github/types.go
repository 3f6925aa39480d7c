package github

import "encoding/json"

// Timestamps are kept as strings so that one malformed record degrades
// instead of failing the whole page decode.

// PublicEvent represents a GitHub public event.
type PublicEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"repo"`
	Payload json.RawMessage `json:"payload"`
}

// PushPayload is the payload of a PushEvent.
type PushPayload struct {
	Ref     string       `json:"ref"`
	Commits []PushCommit `json:"commits"`
}

// PushCommit is one commit listed in a PushEvent payload.
type PushCommit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Repository represents a GitHub repository
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Fork          bool   `json:"fork"`
	DefaultBranch string `json:"default_branch"`
	CreatedAt     string `json:"created_at"`
	HTMLURL       string `json:"html_url"`
}

// TreeEntry is one path in a git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// Tree is a recursive git tree listing.
type Tree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// ContentTree is a repository's file tree resolved at its default branch.
type ContentTree struct {
	Owner   string
	Repo    string
	Branch  string
	Entries []TreeEntry
}
