// Package digest runs the activity pipeline: fetch, normalize, select, render and splice.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/ghactivity/pkg/activity"
	"github.com/codeGROOVE-dev/ghactivity/pkg/config"
	"github.com/codeGROOVE-dev/ghactivity/pkg/github"
	"github.com/codeGROOVE-dev/ghactivity/pkg/metrics"
	"github.com/codeGROOVE-dev/ghactivity/pkg/splice"
)

// Source is the subset of the GitHub client the pipeline reads from.
type Source interface {
	FetchPublicEvents(ctx context.Context, username string) ([]github.PublicEvent, error)
	FetchRepositories(ctx context.Context, username string) ([]github.Repository, error)
	FetchContentTree(ctx context.Context, owner, repo string) (*github.ContentTree, error)
}

// Updater updates the activity section of one document.
type Updater struct {
	cfg     *config.Config
	source  Source
	logger  *slog.Logger
	metrics *metrics.Recorder
	markers splice.Markers
	dryRun  bool
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithMetrics records run metrics into r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(u *Updater) {
		u.metrics = r
	}
}

// WithMarkers overrides the section markers.
func WithMarkers(m splice.Markers) Option {
	return func(u *Updater) {
		u.markers = m
	}
}

// WithDryRun computes the new document but never writes it.
func WithDryRun(dryRun bool) Option {
	return func(u *Updater) {
		u.dryRun = dryRun
	}
}

// New creates an Updater. cfg must already be normalized.
func New(cfg *config.Config, source Source, opts ...Option) *Updater {
	u := &Updater{
		cfg:     cfg,
		source:  source,
		logger:  slog.Default(),
		markers: splice.DefaultMarkers(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Snapshot holds the normalized, newest-first items of every source.
type Snapshot struct {
	Commits []activity.Item
	Repos   []activity.Item
	Blogs   []activity.Item
}

// Digest is a selection and its rendered section.
type Digest struct {
	Snapshot
	Selected []activity.Item
	Section  string
}

// Result describes the outcome of Run.
type Result struct {
	Digest
	Path    string
	Updated bool
}

// Collect fetches every source concurrently and normalizes the responses.
// Any failed fetch fails the whole collection.
func (u *Updater) Collect(ctx context.Context) (*Snapshot, error) {
	var (
		wg        sync.WaitGroup
		events    []github.PublicEvent
		repos     []github.Repository
		tree      *github.ContentTree
		eventsErr error
		reposErr  error
		treeErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		events, eventsErr = u.source.FetchPublicEvents(ctx, u.cfg.Username)
	}()
	go func() {
		defer wg.Done()
		repos, reposErr = u.source.FetchRepositories(ctx, u.cfg.Username)
	}()
	if u.cfg.BlogEnabled() {
		owner, name := u.cfg.BlogOwnerRepo()
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, treeErr = u.source.FetchContentTree(ctx, owner, name)
		}()
	}
	wg.Wait()

	switch {
	case eventsErr != nil:
		return nil, fmt.Errorf("fetching events for %s: %w", u.cfg.Username, eventsErr)
	case reposErr != nil:
		return nil, fmt.Errorf("fetching repositories for %s: %w", u.cfg.Username, reposErr)
	case treeErr != nil:
		return nil, fmt.Errorf("fetching blog posts from %s: %w", u.cfg.BlogRepo, treeErr)
	}

	snap := &Snapshot{
		Commits: activity.Commits(events),
		Repos:   activity.Repos(repos),
	}
	if tree != nil {
		snap.Blogs = activity.BlogPosts(tree, u.cfg.BlogSiteBaseURL, activity.NewPostMatcher(u.cfg.BlogPostsDir))
	}

	u.logger.Debug("collected activity",
		"username", u.cfg.Username,
		"events", len(events),
		"commits", len(snap.Commits),
		"repos", len(snap.Repos),
		"blogs", len(snap.Blogs))
	return snap, nil
}

// Build collects activity, selects and renders it.
func (u *Updater) Build(ctx context.Context) (*Digest, error) {
	snap, err := u.Collect(ctx)
	if err != nil {
		return nil, err
	}

	selected := activity.Select(snap.Commits, snap.Repos, snap.Blogs, u.cfg.Limits)
	d := &Digest{
		Snapshot: *snap,
		Selected: selected,
		Section:  activity.Render(selected),
	}
	u.record(d)
	return d, nil
}

// Run builds the digest and rewrites the document if its section changed.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	d, err := u.Build(ctx)
	if err != nil {
		return nil, err
	}

	path, err := filepath.Abs(u.cfg.ReadmePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", u.cfg.ReadmePath, err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.cfg.ReadmePath, err)
	}

	updated, err := u.markers.Replace(string(original), d.Section)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", u.cfg.ReadmePath, err)
	}

	res := &Result{Digest: *d, Path: u.cfg.ReadmePath}
	if updated == string(original) {
		u.logger.Debug("document already up to date", "path", path)
	} else if u.dryRun {
		u.logger.Debug("dry run, not writing", "path", path)
	} else {
		if err := writeFile(path, []byte(updated)); err != nil {
			return nil, err
		}
		res.Updated = true
		u.logger.Debug("document updated", "path", path, "items", len(d.Selected))
	}

	if u.metrics != nil {
		u.metrics.Finish(res.Updated, time.Since(start))
	}
	return res, nil
}

func (u *Updater) record(d *Digest) {
	if u.metrics == nil {
		return
	}
	u.metrics.SetSourceItems(activity.KindCommit.String(), len(d.Commits))
	u.metrics.SetSourceItems(activity.KindRepo.String(), len(d.Repos))
	u.metrics.SetSourceItems(activity.KindBlog.String(), len(d.Blogs))

	counts := map[activity.Kind]int{}
	for _, item := range d.Selected {
		counts[item.Kind]++
	}
	for _, k := range []activity.Kind{activity.KindCommit, activity.KindRepo, activity.KindBlog} {
		u.metrics.SetSelected(k.String(), counts[k])
	}
}

// writeFile replaces path, keeping its permissions.
func writeFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
