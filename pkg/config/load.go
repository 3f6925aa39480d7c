package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables that set them.
var envBindings = map[string]string{
	"username":     "GITHUB_USERNAME",
	"github_token": "GITHUB_TOKEN",
	"readme":       "README_PATH",
	"blog_repo":    "BLOG_REPO",
	"blog_url":     "BLOG_SITE_BASE_URL",
	"posts_dir":    "BLOG_POSTS_DIR",
	"cache_dir":    "CACHE_DIR",
	"metrics_file": "METRICS_FILE",
	"retries":      "GITHUB_RETRIES",
	"api_url":      "GITHUB_API_URL",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("username", d.Username, "GitHub account to summarize (or set GITHUB_USERNAME)")
	fs.String("github-token", "", "GitHub token for API access (or set GITHUB_TOKEN)")
	fs.String("readme", d.ReadmePath, "Document to update (or set README_PATH)")
	fs.String("blog-repo", "", "Blog content repository, owner/name or URL (or set BLOG_REPO)")
	fs.String("blog-url", "", "Public base URL of the blog (or set BLOG_SITE_BASE_URL)")
	fs.String("posts-dir", d.BlogPostsDir, "Posts directory inside the blog repository (or set BLOG_POSTS_DIR)")
	fs.String("cache-dir", "", "Directory for the HTTP revalidation cache (or set CACHE_DIR)")
	fs.String("metrics-file", "", "Write Prometheus metrics to this file (or set METRICS_FILE)")
	fs.Uint("retries", 0, "Extra attempts after a network failure (or set GITHUB_RETRIES)")
	fs.Int("max-items", d.Limits.Max, "Maximum number of items to render")
	fs.Int("commits", d.Limits.Commits, "Guaranteed commit slots")
	fs.Int("repos", d.Limits.Repos, "Guaranteed new repository slots")
	fs.Int("blogs", d.Limits.Blogs, "Guaranteed blog post slots")
	fs.String("api-url", "", "GitHub REST API base URL (or set GITHUB_API_URL)")
	_ = fs.MarkHidden("api-url") //nolint:errcheck // registered above
}

// flagKeys maps flag names to configuration keys where they differ.
var flagKeys = map[string]string{
	"github-token": "github_token",
	"blog-repo":    "blog_repo",
	"blog-url":     "blog_url",
	"posts-dir":    "posts_dir",
	"cache-dir":    "cache_dir",
	"metrics-file": "metrics_file",
	"max-items":    "max_items",
	"api-url":      "api_url",
}

var limitKeys = []string{"max_items", "commits", "repos", "blogs"}

func isKey(key string) bool {
	if _, ok := envBindings[key]; ok {
		return true
	}
	return slices.Contains(limitKeys, key)
}

// Load resolves configuration from flags, environment, an optional YAML file and defaults,
// in that order of precedence. It does not validate; call Normalize.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("username", d.Username)
	v.SetDefault("readme", d.ReadmePath)
	v.SetDefault("posts_dir", d.BlogPostsDir)
	v.SetDefault("max_items", d.Limits.Max)
	v.SetDefault("commits", d.Limits.Commits)
	v.SetDefault("repos", d.Limits.Repos)
	v.SetDefault("blogs", d.Limits.Blogs)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				key = f.Name
			}
			if !isKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Field: "config", Msg: fmt.Sprintf("reading %s: %v", configFile, err)}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return &cfg, nil
}
