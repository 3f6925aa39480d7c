package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/ghactivity/pkg/activity"
	"github.com/codeGROOVE-dev/ghactivity/pkg/config"
	"github.com/codeGROOVE-dev/ghactivity/pkg/digest"
	"github.com/codeGROOVE-dev/ghactivity/pkg/github"
)

const profile = "# Hi\n\n<!--START_SECTION:recent_activity-->\n<!--END_SECTION:recent_activity-->\n"

// isolateEnv clears settings the surrounding environment could leak into a run.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"GITHUB_USERNAME", "GITHUB_TOKEN", "README_PATH", "BLOG_REPO", "BLOG_SITE_BASE_URL",
		"BLOG_POSTS_DIR", "CACHE_DIR", "METRICS_FILE", "GITHUB_RETRIES", "GITHUB_API_URL",
	} {
		t.Setenv(env, "")
	}
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
}

// fakeGitHub serves one push event and one repository for alice. A non-zero eventsStatus
// makes the events endpoint fail with that status.
func fakeGitHub(t *testing.T, eventsStatus int) *httptest.Server {
	t.Helper()

	payload, err := json.Marshal(github.PushPayload{Commits: []github.PushCommit{
		{SHA: "0123456789abcdef", Message: "fix parser"},
	}})
	require.NoError(t, err)
	event := github.PublicEvent{Type: "PushEvent", CreatedAt: "2024-06-01T12:00:00Z", Payload: payload}
	event.Repo.Name = "alice/tool"
	repos := []github.Repository{
		{Name: "tool", FullName: "alice/tool", CreatedAt: "2024-05-20T00:00:00Z", HTMLURL: "https://github.com/alice/tool"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/users/alice/events/public":
			if eventsStatus != 0 {
				w.WriteHeader(eventsStatus)
				_, _ = w.Write([]byte("boom")) //nolint:errcheck // test server
				return
			}
			_ = json.NewEncoder(w).Encode([]github.PublicEvent{event}) //nolint:errcheck // test server
		case "/users/alice/repos":
			_ = json.NewEncoder(w).Encode(repos) //nolint:errcheck // test server
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpdateThenUpToDate(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, 0)
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte(profile), 0o600))
	metricsFile := filepath.Join(dir, "ghactivity.prom")

	args := []string{
		"--username", "alice", "--github-token", "tok", "--readme", readme,
		"--api-url", server.URL, "--metrics-file", metricsFile,
	}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, "Updated "+readme+" with 2 item(s). commits=1, repos=1, blogs=0\n", out)

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- ✅ Commit: [alice/tool@0123456](https://github.com/alice/tool/commit/0123456789abcdef) - fix parser (2024-06-01)")
	assert.Contains(t, string(data), "- 🆕 Repo: [tool](https://github.com/alice/tool) (2024-05-20)")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ghactivity_document_updated 1")

	out, err = execute(t, append([]string{"update"}, args...)...)
	require.NoError(t, err)
	assert.Equal(t, readme+" is already up to date.\n", out)
}

func TestUpdateUpstreamFailure(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusInternalServerError)
	readme := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(readme, []byte(profile), 0o600))

	_, err := execute(t, "--username", "alice", "--github-token", "tok", "--readme", readme, "--api-url", server.URL)
	require.Error(t, err)
	var upstream *github.UpstreamError
	require.True(t, errors.As(err, &upstream), "error %v", err)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Contains(t, err.Error(), "500 Internal Server Error")
	assert.Contains(t, err.Error(), "boom")

	data, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Equal(t, profile, string(data))
}

func TestUpdateMissingToken(t *testing.T) {
	isolateEnv(t)
	// Keep the gh CLI fallback from finding a real token.
	t.Setenv("PATH", t.TempDir())
	readme := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(readme, []byte(profile), 0o600))

	_, err := execute(t, "update", "--readme", readme, "--api-url", "http://127.0.0.1:1")
	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr), "error %v", err)
	assert.Equal(t, "GITHUB_TOKEN", cfgErr.Field)
}

func sampleDigest() *digest.Digest {
	item := activity.Item{
		Kind:      activity.KindRepo,
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Date:      "2024-05-01",
		Repo:      "alice/tool",
		Name:      "tool",
		URL:       "https://github.com/alice/tool",
	}
	return &digest.Digest{
		Snapshot: digest.Snapshot{Repos: []activity.Item{item}},
		Selected: []activity.Item{item},
		Section:  activity.Render([]activity.Item{item}),
	}
}

func TestPrintDigestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDigest(&buf, sampleDigest(), "markdown"))
	assert.Equal(t, "- 🆕 Repo: [tool](https://github.com/alice/tool) (2024-05-01)\n", buf.String())
}

func TestPrintDigestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDigest(&buf, sampleDigest(), "yaml"))

	var out struct {
		Items   []map[string]string `yaml:"items"`
		Sources map[string]int      `yaml:"sources"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "repo", out.Items[0]["kind"])
	assert.Equal(t, "tool", out.Items[0]["name"])
	assert.NotContains(t, out.Items[0], "timestamp")
	assert.Equal(t, 1, out.Sources["repos"])
	assert.Equal(t, 0, out.Sources["commits"])
}

func TestPreviewRejectsUnknownFormat(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"preview", "--format", "html"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
