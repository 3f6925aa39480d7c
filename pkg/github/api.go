package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	perPage       = 100
	maxErrorBody  = 64 * 1024
	defaultBranch = "main"
)

// FetchPublicEvents fetches one page of a user's public events.
func (c *Client) FetchPublicEvents(ctx context.Context, username string) ([]PublicEvent, error) {
	path := fmt.Sprintf("/users/%s/events/public?per_page=%d", url.PathEscape(username), perPage)

	var events []PublicEvent
	if err := c.getJSON(ctx, "events", path, &events); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched public events", "username", username, "count", len(events))
	return events, nil
}

// FetchRepositories fetches one page of a user's repositories, newest first.
func (c *Client) FetchRepositories(ctx context.Context, username string) ([]Repository, error) {
	path := fmt.Sprintf("/users/%s/repos?sort=created&direction=desc&per_page=%d", url.PathEscape(username), perPage)

	var repos []Repository
	if err := c.getJSON(ctx, "repos", path, &repos); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched repositories", "username", username, "count", len(repos))
	return repos, nil
}

// FetchRepository fetches metadata for owner/repo.
func (c *Client) FetchRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))

	var info Repository
	if err := c.getJSON(ctx, "repo", path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchContentTree resolves the default branch of owner/repo and lists its files recursively.
func (c *Client) FetchContentTree(ctx context.Context, owner, repo string) (*ContentTree, error) {
	info, err := c.FetchRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	branch := info.DefaultBranch
	if branch == "" {
		branch = defaultBranch
	}

	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))

	var tree Tree
	if err := c.getJSON(ctx, "tree", path, &tree); err != nil {
		return nil, err
	}
	if tree.Truncated {
		c.logger.Warn("git tree listing truncated by GitHub", "repo", owner+"/"+repo, "entries", len(tree.Tree))
	}

	c.logger.Debug("fetched content tree", "repo", owner+"/"+repo, "branch", branch, "entries", len(tree.Tree))
	return &ContentTree{
		Owner:   owner,
		Repo:    repo,
		Branch:  branch,
		Entries: tree.Tree,
	}, nil
}

// getJSON issues an authenticated GET for path and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, v any) error {
	apiURL := c.baseURL + path

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Accept", "application/vnd.github+json")
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
			if c.githubToken != "" {
				req.Header.Set("Authorization", "Bearer "+c.githubToken)
			}

			resp, err := c.do(ctx, req)
			if err != nil {
				c.observe(endpoint, 0)
				return fmt.Errorf("requesting %s: %w", path, err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()
			c.observe(endpoint, resp.StatusCode)

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
				if err != nil {
					c.logger.Debug("failed to read error body", "path", path, "error", err)
				}
				return retry.Unrecoverable(&UpstreamError{
					Path:       path,
					StatusCode: resp.StatusCode,
					Status:     resp.Status,
					Body:       string(bytes.TrimSpace(b)),
				})
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries+1),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying GitHub request", "attempt", n+1, "path", path, "error", err)
		}),
	)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return upstream
		}
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
