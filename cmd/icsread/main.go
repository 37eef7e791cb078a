package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli"

	"icsread/internal/config"
	"icsread/internal/ics"
	appLog "icsread/internal/log"
)

const (
	AppName    = "icsread"
	AppVersion = "(unknown)"
)

// exitNoSource is returned when neither a file path nor any URL resolves.
const exitNoSource = 2

var pipelineFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "url",
		Usage: "Calendar URL to fetch (repeatable; values may be comma-separated)",
	},
	&cli.StringFlag{
		Name:  "after",
		Usage: "Keep events overlapping this instant or later (ISO datetime or 'now')",
	},
	&cli.StringFlag{
		Name:  "before",
		Usage: "Keep events overlapping this instant or earlier (ISO datetime)",
	},
	&cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of events to output (0 = unbounded)",
	},
	&cli.StringFlag{
		Name:  "format",
		Usage: "Output mode: text or json",
	},
	&cli.IntFlag{
		Name:  "cache-ttl",
		Usage: "Cache TTL in seconds for downloaded URLs (0 disables the cache)",
		Value: -1,
	},
	&cli.StringFlag{
		Name:  "cache-dir",
		Usage: "Directory for URL cache files (default: per-user cache path)",
	},
	&cli.StringFlag{
		Name:  "config",
		Usage: "Path to config file",
		Value: config.DefaultPath(),
	},
	&cli.BoolFlag{
		Name:  "debug",
		Usage: "Output debug messages",
	},
}

// newApp builds the CLI. A bare invocation (no subcommand) dispatches to the
// read pipeline, so `icsread calendar.ics` and `icsread read calendar.ics`
// are equivalent.
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = AppName
	app.Version = AppVersion
	app.Usage = "Parse iCalendar (.ics) events from files and URLs"
	app.ArgsUsage = "[ics_path]"
	app.Flags = pipelineFlags
	app.Action = runRead
	app.Commands = []cli.Command{
		readCmd,
		watchCmd,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		if errors.Is(err, config.ErrNoSource) {
			os.Exit(exitNoSource)
		}
		os.Exit(1)
	}
}

var readCmd = cli.Command{
	Name:      "read",
	Usage:     "Read, filter and print calendar events once",
	ArgsUsage: "[ics_path]",
	Flags:     pipelineFlags,
	Action:    runRead,
}

var watchCmd = cli.Command{
	Name:      "watch",
	Usage:     "Re-read and re-print calendar events on a cron schedule",
	ArgsUsage: "[ics_path]",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "Cron schedule for refreshes (default: config refresh entry)",
		},
	}, pipelineFlags...),
	Action: runWatch,
}

func runRead(c *cli.Context) error {
	p, err := newPipeline(c)
	if err != nil {
		return err
	}
	return p.run(context.Background())
}

func runWatch(c *cli.Context) error {
	p, err := newPipeline(c)
	if err != nil {
		return err
	}

	schedule := c.String("schedule")
	if schedule == "" {
		schedule = p.cfg.RefreshCron
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// One immediate pass so the first output never waits for the schedule.
	if err := p.run(ctx); err != nil {
		return err
	}

	cr := cron.New()
	if _, err := cr.AddFunc(schedule, func() {
		if err := p.run(ctx); err != nil {
			appLog.Error("refresh failed", err, "schedule", schedule)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	appLog.Info("watching calendars", "schedule", schedule, "sources", len(p.urls))
	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()
	return nil
}

// pipeline holds everything one fetch+parse+filter+render pass needs.
// Filter bounds stay as raw strings so that "now" re-resolves on every
// watch tick.
type pipeline struct {
	cfg      *config.Config
	path     string
	urls     []string
	after    string
	before   string
	limit    int
	format   string
	cacheDir string
}

// newPipeline resolves configuration with flag > environment > config-file
// precedence and validates the input sources.
func newPipeline(c *cli.Context) (*pipeline, error) {
	if c.Bool("debug") {
		appLog.SetLevel(appLog.LevelDebug)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("unable to load config: %w", err)
		}
		// A fresh default config that failed to persist is still usable.
		appLog.Warn("could not write default config", "path", c.String("config"), "cause", err)
	}
	cfg.ApplyEnv()

	if c.IsSet("cache-ttl") {
		ttl := c.Int("cache-ttl")
		if ttl < 0 {
			ttl = 0
		}
		cfg.CacheTTLSeconds = &ttl
	}
	if v := c.String("cache-dir"); v != "" {
		cfg.CacheDir = v
	}
	if v := c.String("format"); v != "" {
		cfg.Format = v
	}
	switch cfg.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid format %q (expected text or json)", cfg.Format)
	}

	urls := config.SplitURLs(append(c.StringSlice("url"), cfg.URLs...)...)
	path := c.Args().First()
	if path == "" && len(urls) == 0 {
		return nil, fmt.Errorf("%w: pass an ics_path argument, use --url, or set ICS_URLS",
			config.ErrNoSource)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir()
	}

	appLog.Debug("effective config",
		"path", path,
		"url_count", len(urls),
		"cache_dir", cacheDir,
		"cache_ttl_seconds", *cfg.CacheTTLSeconds,
		"format", cfg.Format,
	)

	return &pipeline{
		cfg:      cfg,
		path:     path,
		urls:     urls,
		after:    c.String("after"),
		before:   c.String("before"),
		limit:    c.Int("limit"),
		format:   cfg.Format,
		cacheDir: cacheDir,
	}, nil
}

// run performs one sequential fetch+parse+filter+render pass and prints the
// result to stdout.
func (p *pipeline) run(ctx context.Context) error {
	events := make([]ics.Event, 0)

	if p.path != "" {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", p.path, err)
		}
		events = append(events, ics.ParseEvents(string(data))...)
	}

	if len(p.urls) > 0 {
		ttl := time.Duration(*p.cfg.CacheTTLSeconds) * time.Second
		fetcher := ics.NewFetcher(p.cacheDir, ttl)
		for _, u := range p.urls {
			body, err := fetcher.Fetch(ctx, u)
			if err != nil {
				return err
			}
			events = append(events, ics.ParseEvents(string(body))...)
		}
	}
	appLog.Debug("parse completed", "event_count", len(events))

	now := time.Now().UTC()
	opts := ics.FilterOptions{Limit: p.limit, Now: now}
	if p.after != "" {
		t, err := ics.ParseFilterInstant(p.after, now)
		if err != nil {
			return fmt.Errorf("invalid --after value: %w", err)
		}
		opts.After = &t
	}
	if p.before != "" {
		t, err := ics.ParseFilterInstant(p.before, now)
		if err != nil {
			return fmt.Errorf("invalid --before value: %w", err)
		}
		opts.Before = &t
	}

	filtered := ics.FilterEvents(events, opts)

	out, err := renderOutput(filtered, p.format)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
