package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumenlms/pipeline/internal/application"
	"github.com/lumenlms/pipeline/internal/config"
	"github.com/lumenlms/pipeline/internal/db"
	"github.com/lumenlms/pipeline/internal/objectstore"
	"github.com/lumenlms/pipeline/internal/pipeline"
	"github.com/lumenlms/pipeline/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting transcoder service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(conf.StagingDir, 0o755); err != nil {
		slog.Error("failed to create staging dir", "dir", conf.StagingDir, "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbc.Close()

	q := dbc.Queries()

	// A previous instance may have died mid-job. Requeue its claims and
	// reset any assets it left in PROCESSING before taking new work.
	if n, err := q.RecoverStuckTranscodeJobs(ctx); err != nil {
		slog.Error("failed to recover stuck jobs", "error", err)
	} else if n > 0 {
		slog.Info("requeued stuck jobs", "count", n)
	}
	if n, err := q.RecoverOrphanedAssets(ctx); err != nil {
		slog.Error("failed to recover orphaned assets", "error", err)
	} else if n > 0 {
		slog.Info("reset orphaned assets", "count", n)
	}

	store, err := objectstore.NewS3Storage(ctx, conf.S3Bucket, conf.S3Region, conf.S3PublicBaseURL)
	if err != nil {
		slog.Error("failed to create object storage client", "error", err)
		os.Exit(1)
	}

	encodingConf := pipeline.DefaultEncodingConfig()
	encodingConf.WatermarkEnabled = conf.WatermarkEnabled

	pl := &pipeline.Pipeline{
		Runner:      pipeline.ExecToolRunner{},
		Store:       store,
		Recorder:    pipeline.NewDBStateRecorder(q),
		Audit:       pipeline.NewDBAuditLogger(q),
		Config:      encodingConf,
		StagingRoot: conf.StagingDir,
	}

	workers := worker.NewPool(dbc, pl, conf.DatabaseDSN, conf.TranscodeWorkers, conf.TranscodeRatePerMin)
	workers.Run(ctx)

	slog.Info("Transcoder service stopped")
}
