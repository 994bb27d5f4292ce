package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/snarg/chaptr/internal/ingest"
	"github.com/snarg/chaptr/internal/metrics"
)

type WatchCmd struct {
	Dir      string `help:"Inbox directory (overrides WATCH_DIR)"`
	Workers  int    `help:"Concurrent runs (overrides WATCH_WORKERS)"`
	Chapters int    `short:"n" help:"Number of chapters (overrides CHAPTER_COUNT)"`
	Mode     string `short:"m" help:"Chapter mode: general or qa (overrides CHAPTER_MODE)"`
}

func (c *WatchCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ov := g.overrides()
	ov.WatchDir = c.Dir
	ov.ChapterCount = c.Chapters
	ov.ChapterMode = c.Mode

	a, err := newApp(ctx, g, ov, appNeeds{store: true, llm: true, stt: true, db: true, mqtt: true})
	if err != nil {
		return err
	}
	defer a.close()
	if a.cfg.WatchDir == "" {
		return errors.New("no inbox directory: set WATCH_DIR or pass --dir")
	}
	workers := a.cfg.WatchWorkers
	if c.Workers > 0 {
		workers = c.Workers
	}
	a.log.Info().Str("version", version).Msg("chaptr watch starting")

	if a.reconciler != nil {
		a.reconciler.Start()
		defer a.reconciler.Stop()
	}

	w := ingest.NewWatcher(ingest.WatcherOptions{
		Dir:       a.cfg.WatchDir,
		Processor: a.processor(),
		Workers:   workers,
		Log:       a.log,
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if a.db != nil {
		pool = a.db.Pool
	}
	prometheus.MustRegister(metrics.NewCollector(pool, w))

	go a.housekeep(ctx, 15*time.Second)

	<-ctx.Done()
	a.log.Info().Msg("shutdown signal received")
	w.Stop()
	a.log.Info().Msg("chaptr watch stopped")
	return nil
}

// housekeep writes the metrics textfile and checks database health until ctx ends.
func (a *app) housekeep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		a.writeMetrics()
		if a.db == nil {
			continue
		}
		latency, err := a.db.HealthCheck(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil && healthy:
			a.log.Warn().Err(err).Msg("database health check failed")
			healthy = false
		case err == nil && !healthy:
			a.log.Info().Dur("latency", latency).Msg("database reachable again")
			healthy = true
		}
	}
}
