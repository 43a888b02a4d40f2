package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TranscodeJobStatus is the broker-side state of one queued job.
type TranscodeJobStatus string

const (
	TranscodeJobQueued     TranscodeJobStatus = "queued"
	TranscodeJobProcessing TranscodeJobStatus = "processing"
	TranscodeJobCompleted  TranscodeJobStatus = "completed"
	TranscodeJobFailed     TranscodeJobStatus = "failed"
)

// TranscodeJob is one row in the queue table. Each row is one dispatch; a
// redispatch after failure gets a fresh row and therefore a fresh job id.
type TranscodeJob struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	SourceKey   string
	Status      TranscodeJobStatus
	Attempts    int32
	ProgressPct int32
	LastError   *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

const transcodeJobColumns = `id, asset_id, source_key, status, attempts,
	progress_pct, last_error, created_at, started_at, finished_at`

func scanTranscodeJob(row interface{ Scan(...any) error }) (*TranscodeJob, error) {
	var j TranscodeJob
	err := row.Scan(
		&j.ID, &j.AssetID, &j.SourceKey, &j.Status, &j.Attempts,
		&j.ProgressPct, &j.LastError, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// EnqueueTranscodeJob inserts a queued job for an asset. The insert trigger
// notifies the transcode_jobs channel so idle workers wake immediately.
func (q *Queries) EnqueueTranscodeJob(ctx context.Context, assetID uuid.UUID, sourceKey string) (*TranscodeJob, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO transcode_jobs (id, asset_id, source_key, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+transcodeJobColumns,
		uuid.New(), assetID, sourceKey, TranscodeJobQueued)
	return scanTranscodeJob(row)
}

// DequeueTranscodeJob claims the oldest queued job. SKIP LOCKED keeps
// concurrent workers from claiming the same row. Returns pgx.ErrNoRows when
// the queue is empty.
func (q *Queries) DequeueTranscodeJob(ctx context.Context) (*TranscodeJob, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE transcode_jobs
		SET status = $1, attempts = attempts + 1, started_at = now()
		WHERE id = (
			SELECT id FROM transcode_jobs
			WHERE status = $2
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+transcodeJobColumns,
		TranscodeJobProcessing, TranscodeJobQueued)
	return scanTranscodeJob(row)
}

// UpdateTranscodeJobProgress stores the pipeline's progress milestone.
func (q *Queries) UpdateTranscodeJobProgress(ctx context.Context, id uuid.UUID, pct int32) error {
	_, err := q.db.Exec(ctx, `
		UPDATE transcode_jobs SET progress_pct = $2 WHERE id = $1`,
		id, pct)
	return err
}

// FinishTranscodeJobCompleted marks a job done.
func (q *Queries) FinishTranscodeJobCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE transcode_jobs
		SET status = $2, progress_pct = 100, finished_at = now()
		WHERE id = $1`,
		id, TranscodeJobCompleted)
	return err
}

// FinishTranscodeJobFailed marks a job failed with its error text. Whether
// the asset gets redispatched (a fresh queue row) is the broker side's call.
func (q *Queries) FinishTranscodeJobFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE transcode_jobs
		SET status = $2, last_error = $3, finished_at = now()
		WHERE id = $1`,
		id, TranscodeJobFailed, lastError)
	return err
}

// RecoverStuckTranscodeJobs requeues jobs left in processing by a previous
// worker instance that crashed mid-job.
func (q *Queries) RecoverStuckTranscodeJobs(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE transcode_jobs
		SET status = $1, started_at = NULL, progress_pct = 0
		WHERE status = $2`,
		TranscodeJobQueued, TranscodeJobProcessing)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
