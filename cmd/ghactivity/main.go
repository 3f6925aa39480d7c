// Package main implements the ghactivity CLI, which keeps a profile README's recent activity section current.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/ghactivity/pkg/activity"
	"github.com/codeGROOVE-dev/ghactivity/pkg/config"
	"github.com/codeGROOVE-dev/ghactivity/pkg/digest"
	"github.com/codeGROOVE-dev/ghactivity/pkg/github"
	"github.com/codeGROOVE-dev/ghactivity/pkg/httpcache"
	"github.com/codeGROOVE-dev/ghactivity/pkg/metrics"
)

const version = "v1.0.0"

var (
	cfgFile string
	verbose bool
	dryRun  bool
	format  string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ghactivity",
		Short:         "Update the recent activity section of a GitHub profile README",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runUpdate,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	config.RegisterFlags(root.PersistentFlags())
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Print the section instead of writing the file")

	update := &cobra.Command{
		Use:   "update",
		Short: "Rewrite the activity section if it changed (default)",
		Args:  cobra.NoArgs,
		RunE:  runUpdate,
	}
	update.Flags().BoolVar(&dryRun, "dry-run", false, "Print the section instead of writing the file")

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the selected activity without touching the file",
		Args:  cobra.NoArgs,
		RunE:  runPreview,
	}
	preview.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or yaml")

	root.AddCommand(update, preview)
	return root
}

// app is everything a command needs, built from configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	updater *digest.Updater
	metrics *metrics.Recorder
	cache   *httpcache.OtterCache
}

func setup(cmd *cobra.Command, opts ...digest.Option) (*app, error) {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		cfg.Token = ghCLIToken(cmd.Context())
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	hc := &http.Client{Timeout: 30 * time.Second}
	clientOpts := []github.Option{
		github.WithHTTPClient(hc),
		github.WithRetries(cfg.Retries),
		github.WithObserver(a.metrics.ObserveRequest),
	}
	if cfg.APIURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(cfg.APIURL))
	}
	if cfg.CacheDir != "" {
		cache, err := httpcache.NewOtterCache(cfg.CacheDir, httpcache.DefaultTTL, logger)
		if err != nil {
			logger.Warn("cache disabled", "dir", cfg.CacheDir, "error", err)
		} else {
			a.cache = cache
			clientOpts = append(clientOpts, github.WithDoer(httpcache.NewCachedHTTPClient(cache, hc, logger).Do))
		}
	}
	client := github.NewClient(logger, cfg.Token, clientOpts...)

	opts = append([]digest.Option{digest.WithLogger(logger), digest.WithMetrics(a.metrics)}, opts...)
	a.updater = digest.New(cfg, client, opts...)
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to save cache", "error", err)
		}
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			a.logger.Warn("failed to write metrics", "error", err)
		}
	}
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := setup(cmd, digest.WithDryRun(dryRun))
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.updater.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case dryRun:
		fmt.Fprintln(out, res.Section)
	case res.Updated:
		color.New(color.FgGreen).Fprintf(out, "Updated %s with %d item(s). commits=%d, repos=%d, blogs=%d\n",
			res.Path, len(res.Selected), len(res.Commits), len(res.Repos), len(res.Blogs))
	default:
		color.New(color.FgYellow).Fprintf(out, "%s is already up to date.\n", res.Path)
	}
	return nil
}

func runPreview(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if format != "markdown" && format != "yaml" {
		return &config.ConfigError{Field: "format", Msg: fmt.Sprintf("unknown format %q", format)}
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.updater.Build(ctx)
	if err != nil {
		return err
	}
	return printDigest(cmd.OutOrStdout(), d, format)
}

func printDigest(w io.Writer, d *digest.Digest, format string) error {
	if format == "markdown" {
		_, err := fmt.Fprintln(w, d.Section)
		return err
	}

	doc := struct {
		Items   []activity.Item `yaml:"items"`
		Sources map[string]int  `yaml:"sources"`
	}{
		Items: d.Selected,
		Sources: map[string]int{
			"commits": len(d.Commits),
			"repos":   len(d.Repos),
			"blogs":   len(d.Blogs),
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
