// Command enqueue is an operator tool for the transcode queue: it registers
// an uploaded source as a media asset and dispatches a transcode job for it,
// or prints the attempt history of an existing asset.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/pipeline/internal/application"
	"github.com/lumenlms/pipeline/internal/config"
	"github.com/lumenlms/pipeline/internal/db"
)

func main() {
	sourceKey := flag.String("source-key", "", "storage key of the uploaded source video")
	owner := flag.String("owner", "", "owner email, used for watermarking when enabled")
	history := flag.String("history", "", "asset id: print the attempt history instead of enqueueing")
	flag.Parse()

	if *sourceKey == "" && *history == "" {
		fmt.Fprintln(os.Stderr, "usage: enqueue -source-key <key> [-owner <email>] | enqueue -history <asset-id>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
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

	if *history != "" {
		assetID, err := uuid.Parse(*history)
		if err != nil {
			slog.Error("invalid asset id", "error", err)
			os.Exit(2)
		}
		printHistory(ctx, q, assetID)
		return
	}

	var ownerEmail *string
	if *owner != "" {
		ownerEmail = owner
	}
	asset, err := q.CreateMediaAsset(ctx, db.CreateMediaAssetParams{
		ID:         uuid.New(),
		SourceKey:  *sourceKey,
		OwnerEmail: ownerEmail,
	})
	if err != nil {
		slog.Error("failed to create media asset", "error", err)
		os.Exit(1)
	}

	job, err := q.EnqueueTranscodeJob(ctx, asset.ID, asset.SourceKey)
	if err != nil {
		slog.Error("failed to enqueue transcode job", "asset_id", asset.ID, "error", err)
		os.Exit(1)
	}

	slog.Info("transcode job enqueued", "asset_id", asset.ID, "job_id", job.ID, "source_key", asset.SourceKey)
}

func printHistory(ctx context.Context, q *db.Queries, assetID uuid.UUID) {
	entries, err := q.ListJobLogForAsset(ctx, assetID)
	if err != nil {
		slog.Error("failed to list job log", "asset_id", assetID, "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("no attempts recorded")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  job=%s  %s", e.StartedAt.Format(time.RFC3339), e.JobID, e.Status)
		if e.DurationMS != nil {
			line += fmt.Sprintf("  %dms", *e.DurationMS)
		}
		if e.Error != nil {
			line += "  " + *e.Error
		}
		fmt.Println(line)
	}
}
