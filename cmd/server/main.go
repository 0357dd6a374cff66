package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"winamax-scraper/internal/api"
	"winamax-scraper/internal/config"
	"winamax-scraper/internal/extractor"
	"winamax-scraper/internal/pipeline"
	"winamax-scraper/internal/schedule"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/proclock"
	"winamax-scraper/lib/serviceutil"
	"winamax-scraper/lib/telemetry"
)

// warmupDelay is how long after startup the first scrape cycle fires,
// giving the HTTP surface time to come up before the heavy work starts.
const warmupDelay = 30 * time.Second

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := config.Load()
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	if *verbose {
		telemetry.InitSlog(true)
	} else {
		telemetry.InitSlogLevel(cfg.LogLevel)
	}

	tel, err := telemetry.SetupFromEnv(ctx, "server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	// one scraper host per working directory
	hostLock := proclock.New("scraper-server")
	if !hostLock.TryAcquire() {
		serviceutil.Fatal("acquire server lock", proclock.ErrHeld)
	}
	defer hostLock.Release()

	db, err := store.Open(cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer db.Close()
	st := store.NewStore(db)

	registry := limits.NewRegistry(
		limits.FileProvider{Path: cfg.LimitsFile},
		limits.StaticProvider{Name: "active_limits", List: cfg.ActiveLimits},
	)

	ext, closeExt, err := buildExtractor(cfg)
	if err != nil {
		serviceutil.Fatal("init extractor", err)
	}
	defer closeExt()

	runner := pipeline.NewRunner(cfg, st, ext, registry)

	runScrape := func() {
		if err := runner.Run(ctx); err != nil {
			slog.WarnContext(ctx, "scheduled scrape did not complete", "err", err)
		}
	}

	sched := schedule.New()
	defer sched.Stop()
	if err := sched.Every(cfg.ScrapingIntervalMinutes, runScrape); err != nil {
		serviceutil.Fatal("schedule scrape", err)
	}
	// nightly cleanup, shortly after the local-midnight score reset
	err = sched.Cron("30 0 * * *", func() {
		if n, err := st.CleanupOldSnapshots(ctx, cfg.RetentionDays); err == nil {
			slog.InfoContext(ctx, "pruned old snapshots", "rows", n)
		}
		if n, err := st.CleanupOldLogs(ctx, cfg.RetentionDays); err == nil {
			slog.InfoContext(ctx, "pruned old run logs", "rows", n)
		}
	})
	if err != nil {
		serviceutil.Fatal("schedule cleanup", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(warmupDelay):
			runScrape()
		}
	}()

	srv := api.NewServer(cfg, st, runner)
	go serviceutil.StartHttpServer(ctx, cfg.Port, srv.Mux())

	slog.InfoContext(ctx, "scraper host started",
		"port", cfg.Port,
		"interval_minutes", cfg.ScrapingIntervalMinutes,
		"mode", cfg.ScraperMode)
	<-ctx.Done()
}

func buildExtractor(cfg config.Config) (extractor.Extractor, func(), error) {
	switch cfg.ScraperMode {
	case "static":
		return extractor.NewStatic(cfg.UserAgent), func() {}, nil
	default:
		b, err := extractor.NewBrowser(cfg.UserAgent)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	}
}
