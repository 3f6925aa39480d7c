package activity

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/ghactivity/pkg/github"
)

const (
	// MessageMaxLen caps commit messages.
	MessageMaxLen = 80
	// TitleMaxLen caps blog post titles.
	TitleMaxLen = 80

	// DefaultPostsDir is the Jekyll posts directory.
	DefaultPostsDir = "_posts"

	noCommitMessage = "No commit message"
	untitledPost    = "Untitled post"
	shortSHALen     = 7
)

var (
	slugSeparators = regexp.MustCompile(`[/\\]+`)
	titleBreaks    = regexp.MustCompile(`[-_]+`)
)

// parseTime parses an RFC 3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Commits extracts one Item per commit referenced by push events, deduplicated and
// sorted newest first.
func Commits(events []github.PublicEvent) []Item {
	var items []Item
	for _, event := range events {
		if event.Type != "PushEvent" {
			continue
		}

		var payload github.PushPayload
		if len(event.Payload) > 0 {
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				continue
			}
		}

		repo := event.Repo.Name
		ts := parseTime(event.CreatedAt)
		for _, commit := range payload.Commits {
			if repo == "" || commit.SHA == "" {
				continue
			}
			msg := commit.Message
			if msg == "" {
				msg = noCommitMessage
			}
			items = append(items, Item{
				Kind:      KindCommit,
				Timestamp: ts,
				Date:      formatDate(ts),
				Repo:      repo,
				SHA:       commit.SHA,
				ShortSHA:  shortSHA(commit.SHA),
				Message:   Truncate(Sanitize(msg), MessageMaxLen),
				URL:       fmt.Sprintf("https://github.com/%s/commit/%s", repo, commit.SHA),
			})
		}
	}

	items = Dedup(items)
	sortNewestFirst(items)
	return items
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALen {
		return sha
	}
	return sha[:shortSHALen]
}

// Repos maps non-fork repositories to creation items, newest first.
func Repos(repos []github.Repository) []Item {
	items := make([]Item, 0, len(repos))
	for _, r := range repos {
		if r.Fork {
			continue
		}
		ts := parseTime(r.CreatedAt)
		items = append(items, Item{
			Kind:      KindRepo,
			Timestamp: ts,
			Date:      formatDate(ts),
			Repo:      r.FullName,
			Name:      r.Name,
			URL:       r.HTMLURL,
		})
	}
	sortNewestFirst(items)
	return items
}

// PostMatcher recognizes dated post files inside a posts directory.
type PostMatcher struct {
	re *regexp.Regexp
}

// NewPostMatcher matches <dir>/YYYY-MM-DD-<slug>.md (or .markdown), case-insensitively.
func NewPostMatcher(dir string) *PostMatcher {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		dir = DefaultPostsDir
	}
	pattern := `(?i)^` + regexp.QuoteMeta(dir) + `/(\d{4})-(\d{2})-(\d{2})-(.+)\.(md|markdown)$`
	return &PostMatcher{re: regexp.MustCompile(pattern)}
}

// post is a parsed post path.
type post struct {
	timestamp time.Time
	date      string
	slug      string
	title     string
}

func (m *PostMatcher) parse(path string) (post, bool) {
	match := m.re.FindStringSubmatch(path)
	if match == nil {
		return post{}, false
	}

	date := match[1] + "-" + match[2] + "-" + match[3]
	ts, err := time.Parse("2006-01-02", date)
	if err != nil {
		ts = time.Time{}
	}

	slug := slugSeparators.ReplaceAllString(strings.TrimSpace(match[4]), "-")
	decoded, err := url.PathUnescape(slug)
	if err != nil || !utf8.ValidString(decoded) {
		decoded = slug
	}

	title := Truncate(Sanitize(titleBreaks.ReplaceAllString(decoded, " ")), TitleMaxLen)
	if title == "" {
		title = untitledPost
	}

	return post{timestamp: ts, date: date, slug: slug, title: title}, true
}

// BlogPosts turns a content repository's tree into blog items, newest first.
// siteBaseURL must not end in a slash.
func BlogPosts(tree *github.ContentTree, siteBaseURL string, m *PostMatcher) []Item {
	if tree == nil {
		return nil
	}
	if m == nil {
		m = NewPostMatcher(DefaultPostsDir)
	}

	var items []Item
	for _, entry := range tree.Entries {
		if entry.Type != "blob" || entry.Path == "" {
			continue
		}
		p, ok := m.parse(entry.Path)
		if !ok {
			continue
		}
		items = append(items, Item{
			Kind:      KindBlog,
			Timestamp: p.timestamp,
			Date:      p.date,
			Title:     p.title,
			URL:       siteBaseURL + "/" + p.slug + "/",
			SourceURL: fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", tree.Owner, tree.Repo, tree.Branch, entry.Path),
		})
	}
	sortNewestFirst(items)
	return items
}

func sortNewestFirst(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
