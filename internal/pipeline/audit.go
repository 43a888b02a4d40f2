package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/pipeline/internal/db"
)

// AuditLogger records the lifecycle trail of a job attempt. Audit writes are
// strictly best effort: a failure here is logged and never changes the job
// outcome.
type AuditLogger interface {
	JobStarted(ctx context.Context, assetID, jobID uuid.UUID)
	JobCompleted(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, metadata map[string]any)
	JobFailed(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, jobErr error)
}

// DBAuditLogger appends the attempt trail to the transcode_job_log table.
type DBAuditLogger struct {
	Queries *db.Queries
}

func NewDBAuditLogger(q *db.Queries) *DBAuditLogger {
	return &DBAuditLogger{Queries: q}
}

func (l *DBAuditLogger) JobStarted(ctx context.Context, assetID, jobID uuid.UUID) {
	slog.Info("transcode started", "asset_id", assetID, "job_id", jobID)
	if err := l.Queries.InsertJobLogStarted(ctx, assetID, jobID); err != nil {
		slog.Warn("failed to write job audit row", "asset_id", assetID, "job_id", jobID, "error", err)
	}
}

func (l *DBAuditLogger) JobCompleted(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, metadata map[string]any) {
	slog.Info("transcode completed", "asset_id", assetID, "job_id", jobID, "elapsed", elapsed.Round(time.Millisecond))
	err := l.Queries.FinishJobLog(ctx, db.FinishJobLogParams{
		AssetID:    assetID,
		JobID:      jobID,
		Status:     db.JobLogCompleted,
		DurationMS: elapsed.Milliseconds(),
		Metadata:   db.MetadataMap(metadata),
	})
	if err != nil {
		slog.Warn("failed to close job audit row", "asset_id", assetID, "job_id", jobID, "error", err)
	}
}

func (l *DBAuditLogger) JobFailed(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, jobErr error) {
	slog.Error("transcode failed", "asset_id", assetID, "job_id", jobID, "elapsed", elapsed.Round(time.Millisecond), "error", jobErr)
	msg := jobErr.Error()
	err := l.Queries.FinishJobLog(ctx, db.FinishJobLogParams{
		AssetID:    assetID,
		JobID:      jobID,
		Status:     db.JobLogFailed,
		DurationMS: elapsed.Milliseconds(),
		Error:      &msg,
	})
	if err != nil {
		slog.Warn("failed to close job audit row", "asset_id", assetID, "job_id", jobID, "error", err)
	}
}
