// Package worker pulls transcode jobs off the Postgres queue and drives the
// pipeline, one job per goroutine slot.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/time/rate"

	"github.com/lumenlms/pipeline/internal/db"
	"github.com/lumenlms/pipeline/internal/pipeline"
)

const notifyChannel = "transcode_jobs"

// Pool runs a fixed number of transcode workers against the job queue.
// Dequeues are paced by a shared limiter so a burst of uploads cannot
// saturate the encode hosts.
type Pool struct {
	dbc      *db.DatabaseConnection
	pipeline *pipeline.Pipeline
	dsn      string
	workers  int
	limiter  *rate.Limiter
}

func NewPool(dbc *db.DatabaseConnection, pl *pipeline.Pipeline, dsn string, workers, jobsPerMinute int) *Pool {
	return &Pool{
		dbc:      dbc,
		pipeline: pl,
		dsn:      dsn,
		workers:  workers,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(jobsPerMinute)), 1),
	}
}

// Run blocks until ctx is cancelled and every in-flight job has finished.
// Workers stop claiming new jobs on cancellation but run their current job
// to completion so no half-published package is left behind.
func (p *Pool) Run(ctx context.Context) {
	wake := make(chan struct{}, 1)
	go listenAndSignal(ctx, p.dsn, notifyChannel, wake)

	slog.Info("transcode workers started", "workers", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(ctx, wake)
		}()
	}
	wg.Wait()
	slog.Info("transcode workers stopped")
}

func (p *Pool) workerLoop(ctx context.Context, wake <-chan struct{}) {
	q := p.dbc.Queries()
	for {
		if ctx.Err() != nil {
			return
		}

		// Drain the queue, then wait for a notification or the poll tick.
		for {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}

			job, err := q.DequeueTranscodeJob(ctx)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					break
				}
				if ctx.Err() != nil {
					return
				}
				slog.Error("failed to dequeue transcode job", "error", err)
				time.Sleep(2 * time.Second)
				break
			}

			p.processJob(ctx, q, job)
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(5 * time.Second):
		}
	}
}

// processJob runs one claimed job. The job itself runs on a context that
// survives shutdown; a SIGTERM mid-encode lets the job finish instead of
// killing ffmpeg and leaving a partial package.
func (p *Pool) processJob(ctx context.Context, q *db.Queries, job *db.TranscodeJob) {
	jobCtx := context.WithoutCancel(ctx)

	progress := func(pct int) {
		if err := q.UpdateTranscodeJobProgress(jobCtx, job.ID, int32(pct)); err != nil {
			slog.Warn("failed to update job progress", "job_id", job.ID, "error", err)
		}
	}

	err := p.pipeline.Process(jobCtx, pipeline.Job{
		JobID:     job.ID,
		AssetID:   job.AssetID,
		SourceKey: job.SourceKey,
	}, progress)
	if err != nil {
		if dbErr := q.FinishTranscodeJobFailed(jobCtx, job.ID, err.Error()); dbErr != nil {
			slog.Error("failed to mark job failed", "job_id", job.ID, "error", dbErr)
		}
		return
	}

	if dbErr := q.FinishTranscodeJobCompleted(jobCtx, job.ID); dbErr != nil {
		slog.Error("failed to mark job completed", "job_id", job.ID, "error", dbErr)
	}
}
