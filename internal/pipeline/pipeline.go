package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/lumenlms/pipeline/internal/objectstore"
)

// Job identifies one transcode attempt pulled off the queue.
type Job struct {
	JobID     uuid.UUID
	AssetID   uuid.UUID
	SourceKey string
}

// ProgressFunc receives coarse completion percentages as the job advances.
type ProgressFunc func(pct int)

// Pipeline turns a raw uploaded video into a published HLS package:
// download, probe, encode the ladder, capture thumbnails, write the master
// playlist, upload everything, and record the outcome.
type Pipeline struct {
	Runner      ToolRunner
	Store       objectstore.Storage
	Recorder    StateRecorder
	Audit       AuditLogger
	Config      EncodingConfig
	StagingRoot string
}

// Process runs one job end to end. On any stage failure the asset is marked
// FAILED with the originating error before the error is returned; the
// staging directory is removed on every path, after state and audit writes.
func (p *Pipeline) Process(ctx context.Context, job Job, progress ProgressFunc) error {
	start := time.Now()
	report := func(pct int) {
		if progress != nil {
			progress(pct)
		}
	}

	p.Audit.JobStarted(ctx, job.AssetID, job.JobID)

	staging, err := NewStagingDir(p.StagingRoot, job.AssetID, job.JobID)
	if err != nil {
		return p.fail(ctx, job, start, err)
	}
	defer staging.Remove()

	meta, result, err := p.run(ctx, job, staging, report)
	if err != nil {
		return p.fail(ctx, job, start, err)
	}

	elapsed := time.Since(start)
	p.Audit.JobCompleted(ctx, job.AssetID, job.JobID, elapsed, map[string]any{
		"duration_seconds": meta.Duration,
		"bytes_uploaded":   result.BytesUploaded,
	})
	slog.Info("published media package",
		"asset_id", job.AssetID,
		"manifest_url", result.ManifestURL,
		"uploaded", humanize.Bytes(result.BytesUploaded),
		"elapsed", elapsed.Round(time.Second))
	return nil
}

func (p *Pipeline) run(ctx context.Context, job Job, staging *StagingDir, report ProgressFunc) (*SourceMetadata, *uploadResult, error) {
	asset, err := p.Recorder.FetchAsset(ctx, job.AssetID)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "fetch asset", Err: err}
	}
	if err := p.Recorder.MarkProcessing(ctx, job.AssetID); err != nil {
		return nil, nil, &PersistenceError{Op: "mark processing", Err: err}
	}
	report(10)

	source, err := p.downloadSource(ctx, job.SourceKey, staging)
	if err != nil {
		return nil, nil, err
	}
	report(20)

	meta, err := p.extractMetadata(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	report(30)

	watermark := ""
	if p.Config.WatermarkEnabled && asset.OwnerEmail != "" {
		watermark = asset.OwnerEmail
	}
	variants, err := p.encodeVariants(ctx, source, staging, watermark)
	if err != nil {
		return nil, nil, err
	}
	report(60)

	thumbs, err := p.generateThumbnails(ctx, source, staging, meta.Duration)
	if err != nil {
		return nil, nil, err
	}
	report(80)

	manifestPath, err := writeMasterManifest(staging, variants)
	if err != nil {
		return nil, nil, err
	}

	result, err := p.uploadPackage(ctx, job.AssetID, variants, thumbs, manifestPath)
	if err != nil {
		return nil, nil, err
	}
	report(90)

	err = p.Recorder.RecordReady(ctx, ReadyRecord{
		AssetID:         job.AssetID,
		ManifestURL:     result.ManifestURL,
		Thumbnails:      result.ThumbnailURLs,
		DurationSeconds: int32(math.Round(meta.Duration)),
		Width:           int32(meta.Width),
		Height:          int32(meta.Height),
		Metadata: map[string]any{
			"source_codec":   meta.VideoCodec,
			"source_bitrate": meta.Bitrate,
			"watermarked":    watermark != "",
		},
	})
	if err != nil {
		return nil, nil, &PersistenceError{Op: "record ready", Err: err}
	}
	report(100)

	return meta, result, nil
}

// fail records the terminal FAILED state and the audit row, then hands the
// originating error back unchanged. A persistence failure on this path is
// logged but never replaces the error that brought the job down.
func (p *Pipeline) fail(ctx context.Context, job Job, start time.Time, jobErr error) error {
	if recErr := p.Recorder.RecordFailed(ctx, job.AssetID, jobErr.Error()); recErr != nil {
		slog.Error("failed to record asset failure", "asset_id", job.AssetID, "error", recErr)
	}
	p.Audit.JobFailed(ctx, job.AssetID, job.JobID, time.Since(start), jobErr)
	return jobErr
}
