package activity

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

var markupChars = strings.NewReplacer("[", "", "]", "", "`", "")

// oneLine collapses every Unicode whitespace run to a single space and trims the ends.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Sanitize strips characters that would break a Markdown link and flattens s to one line.
// Markup goes first so that removing it cannot leave a whitespace run behind.
func Sanitize(s string) string {
	return oneLine(markupChars.Replace(s))
}

// Truncate caps s at limit runes. When it has to cut, the result is exactly limit runes
// long and ends with "...".
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit < len(ellipsis) {
		return ellipsis[:max(0, limit)]
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
