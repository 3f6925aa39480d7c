package github

import "fmt"

// UpstreamError is returned when the GitHub API answers with a non-2xx status.
type UpstreamError struct {
	Path       string
	Status     string
	Body       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub API request failed (%s) for %s: %s", e.Status, e.Path, e.Body)
}
