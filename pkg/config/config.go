// Package config holds the settings of an activity digest run.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codeGROOVE-dev/ghactivity/pkg/activity"
)

// Defaults.
const (
	DefaultUsername   = "octocat"
	DefaultReadmePath = "README.md"
)

// ConfigError reports missing or malformed configuration.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Config is the complete input of a run.
type Config struct {
	Username   string          `mapstructure:"username"`
	Token      string          `mapstructure:"github_token"`
	ReadmePath string          `mapstructure:"readme"`
	Limits     activity.Limits `mapstructure:",squash"`

	// BlogRepo is "owner/name"; empty disables blog posts.
	BlogRepo        string `mapstructure:"blog_repo"`
	BlogSiteBaseURL string `mapstructure:"blog_url"`
	BlogPostsDir    string `mapstructure:"posts_dir"`

	CacheDir    string `mapstructure:"cache_dir"`
	MetricsFile string `mapstructure:"metrics_file"`
	Retries     uint   `mapstructure:"retries"`

	// APIURL overrides the GitHub REST host, e.g. for GitHub Enterprise.
	APIURL string `mapstructure:"api_url"`
}

// Default returns a Config with every default filled in and no token.
func Default() Config {
	return Config{
		Username:     DefaultUsername,
		ReadmePath:   DefaultReadmePath,
		Limits:       activity.DefaultLimits(),
		BlogPostsDir: activity.DefaultPostsDir,
	}
}

// BlogEnabled reports whether a content repository is configured.
func (c *Config) BlogEnabled() bool {
	return c.BlogRepo != ""
}

// BlogOwnerRepo splits BlogRepo. Only valid after Normalize.
func (c *Config) BlogOwnerRepo() (owner, repo string) {
	owner, repo, _ = strings.Cut(c.BlogRepo, "/")
	return owner, repo
}

// Normalize validates c and canonicalizes the blog repository and site URL.
func (c *Config) Normalize() error {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.ReadmePath == "" {
		c.ReadmePath = DefaultReadmePath
	}
	if strings.TrimSpace(c.Token) == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Msg: "missing environment variable"}
	}
	c.Token = strings.TrimSpace(c.Token)

	if err := c.Limits.Validate(); err != nil {
		return &ConfigError{Field: "limits", Msg: err.Error()}
	}

	if strings.TrimSpace(c.BlogRepo) == "" {
		c.BlogRepo = ""
		return nil
	}
	repo, err := ParseRepo(c.BlogRepo)
	if err != nil {
		return err
	}
	c.BlogRepo = repo

	owner, _ := c.BlogOwnerRepo()
	c.BlogSiteBaseURL = SiteBaseURL(c.BlogSiteBaseURL, "https://"+strings.ToLower(owner)+".github.io")
	if c.BlogPostsDir == "" {
		c.BlogPostsDir = activity.DefaultPostsDir
	}
	return nil
}

var (
	repoURLPattern  = regexp.MustCompile(`(?i)^https?://github\.com/([^/\s]+)/([^/\s?#]+)(?:[/?#].*)?$`)
	repoNamePattern = regexp.MustCompile(`^([^/\s]+)/([^/\s]+)$`)
	gitSuffix       = regexp.MustCompile(`(?i)\.git$`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ParseRepo accepts "owner/name" or a github.com repository URL and returns "owner/name".
func ParseRepo(value string) (string, error) {
	input := strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
	if input == "" {
		return "", &ConfigError{Field: "BLOG_REPO", Msg: "blog repository is empty"}
	}

	m := repoURLPattern.FindStringSubmatch(input)
	if m == nil {
		m = repoNamePattern.FindStringSubmatch(input)
	}
	if m == nil {
		return "", &ConfigError{
			Field: "BLOG_REPO",
			Msg:   fmt.Sprintf("invalid repository format %q: expected \"owner/repo\" or a GitHub repository URL", value),
		}
	}
	return m[1] + "/" + gitSuffix.ReplaceAllString(m[2], ""), nil
}

// SiteBaseURL returns value without trailing slashes, or fallback when value is blank.
func SiteBaseURL(value, fallback string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		v = fallback
	}
	return strings.TrimRight(v, "/")
}
