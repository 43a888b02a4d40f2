package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobLogStatus is the per-attempt audit state.
type JobLogStatus string

const (
	JobLogStarted   JobLogStatus = "started"
	JobLogCompleted JobLogStatus = "completed"
	JobLogFailed    JobLogStatus = "failed"
)

// TranscodeJobLogEntry is one append-only audit row per queue job attempt.
// Rows are never deleted; a redispatched asset accumulates multiple entries.
type TranscodeJobLogEntry struct {
	ID          int64
	AssetID     uuid.UUID
	JobID       uuid.UUID
	Status      JobLogStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  *int64
	Error       *string
	Metadata    MetadataMap
}

// InsertJobLogStarted appends the started row for a job attempt.
func (q *Queries) InsertJobLogStarted(ctx context.Context, assetID, jobID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO transcode_job_log (asset_id, job_id, status, started_at)
		VALUES ($1, $2, $3, now())`,
		assetID, jobID, JobLogStarted)
	return err
}

// FinishJobLogParams closes out a job attempt's audit row.
type FinishJobLogParams struct {
	AssetID    uuid.UUID
	JobID      uuid.UUID
	Status     JobLogStatus
	DurationMS int64
	Error      *string
	Metadata   MetadataMap
}

// FinishJobLog transitions the attempt's row from started to its terminal
// status. The row is updated in place so one row exists per attempt.
func (q *Queries) FinishJobLog(ctx context.Context, params FinishJobLogParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE transcode_job_log
		SET status = $3,
		    completed_at = now(),
		    duration_ms = $4,
		    error = $5,
		    metadata = $6
		WHERE asset_id = $1 AND job_id = $2 AND status = $7`,
		params.AssetID, params.JobID, params.Status,
		params.DurationMS, params.Error, params.Metadata, JobLogStarted)
	return err
}

// ListJobLogForAsset returns the attempt history for an asset, oldest first.
func (q *Queries) ListJobLogForAsset(ctx context.Context, assetID uuid.UUID) ([]*TranscodeJobLogEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, asset_id, job_id, status, started_at, completed_at,
		       duration_ms, error, metadata
		FROM transcode_job_log
		WHERE asset_id = $1
		ORDER BY started_at`,
		assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*TranscodeJobLogEntry
	for rows.Next() {
		var e TranscodeJobLogEntry
		if err := rows.Scan(
			&e.ID, &e.AssetID, &e.JobID, &e.Status, &e.StartedAt,
			&e.CompletedAt, &e.DurationMS, &e.Error, &e.Metadata,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
