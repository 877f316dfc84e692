package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erictseng47/Stock/internal/config"
	"github.com/erictseng47/Stock/internal/feed"
	"github.com/erictseng47/Stock/internal/logger"
	"github.com/erictseng47/Stock/internal/pipeline"
	"github.com/erictseng47/Stock/internal/publish"
)

func main() {
	log := logger.New("ingestd")
	cfg, err := config.LoadIngest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	fetcher := feed.NewClient(cfg.FeedBaseURL, cfg.HTTPTimeout, log)

	var publisher pipeline.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := publish.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kp.Close()
		publisher = kp
		log.Info("kafka announcements enabled", slog.String("topic", cfg.KafkaTopic))
	}

	p := pipeline.New(log, fetcher, publisher, pipeline.Options{
		Page:            cfg.Page,
		Limit:           cfg.Limit,
		LinkBase:        cfg.FeedLinkBase,
		StorePath:       cfg.StorePath,
		CSVPath:         cfg.CSVPath,
		RawSnapshotPath: cfg.RawSnapshotPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.RunOnce {
		if !runOnce(ctx, log, p) {
			os.Exit(1)
		}
		return
	}

	log.Info("ingestd running",
		slog.Duration("interval", cfg.Interval),
		slog.Int("page", cfg.Page),
		slog.Int("limit", cfg.Limit),
	)

	// Run immediately on start, then on the interval.
	runOnce(ctx, log, p)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, p)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, p *pipeline.Pipeline) bool {
	rep, err := p.Run(ctx)
	if err != nil {
		// Retry happens on the next interval via re-fetch plus
		// idempotent upsert; no in-run backoff.
		log.Error("ingestion run failed",
			slog.String("run_id", rep.RunID),
			slog.String("state", string(rep.State)),
			slog.Any("err", err),
		)
		return false
	}
	return true
}
