// Package splice replaces the marker-delimited section of a document.
package splice

import (
	"fmt"
	"strings"
)

// Markers delimit the region of a document owned by the tool.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers returns the recent activity section markers.
func DefaultMarkers() Markers {
	return Markers{
		Start: "<!--START_SECTION:recent_activity-->",
		End:   "<!--END_SECTION:recent_activity-->",
	}
}

// MarkerNotFoundError is returned when a marker is missing or the end marker precedes the start marker.
type MarkerNotFoundError struct {
	Markers Markers
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("could not find valid section markers: %s ... %s", e.Markers.Start, e.Markers.End)
}

// Replace puts block between the markers of doc, surrounded by newlines.
// Everything outside the markers is left as is, so applying the same block twice is a no-op.
func (m Markers) Replace(doc, block string) (string, error) {
	start := strings.Index(doc, m.Start)
	end := strings.Index(doc, m.End)
	if start == -1 || end == -1 || end < start+len(m.Start) {
		return "", &MarkerNotFoundError{Markers: m}
	}

	var b strings.Builder
	b.Grow(len(doc) + len(block))
	b.WriteString(doc[:start+len(m.Start)])
	b.WriteString("\n")
	b.WriteString(block)
	b.WriteString("\n")
	b.WriteString(doc[end:])
	return b.String(), nil
}

// Replace splices block into doc using DefaultMarkers.
func Replace(doc, block string) (string, error) {
	return DefaultMarkers().Replace(doc, block)
}
