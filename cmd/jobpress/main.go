package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"jobpress-engine/internal/config"
	"jobpress-engine/internal/httpx"
	"jobpress-engine/internal/pipeline"
	"jobpress-engine/internal/publish"
	"jobpress-engine/internal/retry"
	"jobpress-engine/internal/rewrite"
	"jobpress-engine/internal/secrets"
	"jobpress-engine/internal/source"
	"jobpress-engine/internal/source/emailalert"
	"jobpress-engine/internal/source/myjobmag"
	"jobpress-engine/internal/store"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml, bootstrapped on first run)")
		dataDir   = flag.String("data-dir", "", "data directory for the dedupe database (default: JOBPRESS_DATA_DIR or config value)")
		dryRun    = flag.Bool("dry-run", false, "run the full pass but publish nothing and record nothing")
		limit     = flag.Int("limit", 0, "process at most N listings this run (0 = config value)")
		rebuild   = flag.Bool("rebuild", false, "clear failed dedupe records before processing so they are retried")
		sourceSel = flag.String("source", "", "restrict to one source adapter (myjobmag|email)")
	)
	flag.Parse()

	if err := run(*cfgPath, *dataDir, *dryRun, *limit, *rebuild, *sourceSel); err != nil {
		log.Printf("[jobpress] run failed: %v", err)
		os.Exit(1)
	}
}

func run(cfgPath, dataDir string, dryRun bool, limit int, rebuild bool, sourceSel string) error {
	if dataDir == "" {
		dataDir = os.Getenv("JOBPRESS_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	if cfgPath == "" {
		var err error
		cfgPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return fmt.Errorf("config bootstrap failed: %w", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	if dataDir == "." && cfg.App.DataDir != "" {
		dataDir = cfg.App.DataDir
	}
	if limit == 0 {
		limit = cfg.Pipeline.Limit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Pipeline.RunTimeoutMin > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Pipeline.RunTimeoutMin)*time.Minute)
		defer cancel()
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return fmt.Errorf("dedupe store: %w", err)
	}
	defer st.Close()
	if rebuild {
		// rebuild mutates records other runs may be reserving; demand the
		// database for ourselves
		if err := st.ExclusiveLock(); err != nil {
			return fmt.Errorf("rebuild requires exclusive access: %w", err)
		}
	}

	limiter := httpx.NewHostLimiter(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst)

	adapters, err := buildAdapters(cfg, limiter, sourceSel)
	if err != nil {
		return err
	}

	wpPass := ""
	if !dryRun {
		wpPass, err = secrets.Get(secrets.WordPressAccount(cfg.WordPress.User, cfg.WordPress.APIURL), config.WPPasswordEnv)
		if err != nil {
			return fmt.Errorf("wordpress password: %w", err)
		}
	}

	wp := publish.New(cfg.WordPress, wpPass, limiter)
	deps := pipeline.Deps{
		Store:     st,
		Rewriter:  rewrite.New(cfg.Rewrite, limiter),
		Publisher: wp,
		Terms:     publish.NewTermResolver(wp),
	}
	opts := pipeline.Options{
		Workers:        cfg.Pipeline.Workers,
		Limit:          limit,
		DryRun:         dryRun,
		Rebuild:        rebuild,
		PostStatus:     cfg.WordPress.Status,
		RewriteTimeout: time.Duration(cfg.Rewrite.TimeoutSec) * time.Second,
		PublishTimeout: time.Duration(cfg.WordPress.TimeoutSec) * time.Second,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay(),
			Multiplier:  cfg.Retry.Multiplier,
			MaxDelay:    cfg.Retry.MaxDelay(),
			Jitter:      cfg.Retry.Jitter,
		},
	}

	log.Printf("[jobpress] fetching from %d source(s)", len(adapters))
	batch, err := source.FetchAll(ctx, adapters)
	if err != nil {
		return err
	}
	log.Printf("[jobpress] fetched %d listing(s)", len(batch))

	summary, runErr := pipeline.New(deps, opts).Run(ctx, batch)

	log.Printf("[jobpress] run summary: %d processed, %d published, %d skipped, %d failed",
		summary.Total(), summary.Published, summary.Skipped, summary.Failed)
	if hosts := limiter.Hosts(); len(hosts) > 0 {
		log.Printf("[jobpress] throttled hosts: %v", hosts)
	}
	for _, f := range summary.Failures {
		log.Printf("[jobpress]   %s: %s", f.Fingerprint, f.Reason)
	}
	if dryRun {
		log.Printf("[jobpress] dry run: nothing was published or recorded")
	}
	return runErr
}

func buildAdapters(cfg config.Config, limiter *httpx.HostLimiter, sourceSel string) ([]source.Adapter, error) {
	var adapters []source.Adapter

	if cfg.Sources.MyJobMag.Enabled && (sourceSel == "" || sourceSel == "myjobmag") {
		adapters = append(adapters, myjobmag.New(cfg.Sources.MyJobMag, limiter))
	}
	if cfg.Sources.Email.Enabled && (sourceSel == "" || sourceSel == "email") {
		pass, err := secrets.Get(secrets.IMAPAccount(cfg.Sources.Email.Username, cfg.Sources.Email.IMAPHost), config.IMAPPasswordEnv)
		if err != nil {
			return nil, fmt.Errorf("imap password: %w", err)
		}
		adapters = append(adapters, emailalert.New(cfg.Sources.Email, pass))
	}

	if len(adapters) == 0 {
		if sourceSel != "" {
			return nil, fmt.Errorf("source %q is unknown or not enabled", sourceSel)
		}
		return nil, config.ErrNoEnabledSources
	}
	return adapters, nil
}
