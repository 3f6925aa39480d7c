package activity

import (
	"fmt"
	"strings"
)

// NoActivity is rendered when nothing was selected.
const NoActivity = "No recent public activity found."

// Render formats items as a Markdown bullet list, one line per item.
func Render(items []Item) string {
	if len(items) == 0 {
		return NoActivity
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, RenderLine(item))
	}
	return strings.Join(lines, "\n")
}

// RenderLine formats a single item.
func RenderLine(item Item) string {
	switch item.Kind {
	case KindCommit:
		return fmt.Sprintf("- ✅ Commit: [%s@%s](%s) - %s (%s)", item.Repo, item.ShortSHA, item.URL, item.Message, item.Date)
	case KindBlog:
		return fmt.Sprintf("- 📝 Blog: [%s](%s) (%s)", item.Title, item.URL, item.Date)
	case KindRepo:
		return fmt.Sprintf("- 🆕 Repo: [%s](%s) (%s)", item.Name, item.URL, item.Date)
	default:
		return fmt.Sprintf("- %s (%s)", item.URL, item.Date)
	}
}
