package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaStatus is the lifecycle state of an uploaded source video.
type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "PENDING"
	MediaStatusProcessing MediaStatus = "PROCESSING"
	MediaStatusReady      MediaStatus = "READY"
	MediaStatusFailed     MediaStatus = "FAILED"
)

// MediaAsset represents one uploaded source video and its published outputs.
type MediaAsset struct {
	ID              uuid.UUID
	Status          MediaStatus
	SourceKey       string
	OwnerEmail      *string
	ManifestURL     *string
	Thumbnails      []string
	DurationSeconds *int32
	Width           *int32
	Height          *int32
	Metadata        MetadataMap
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const mediaAssetColumns = `id, status, source_key, owner_email, manifest_url,
	thumbnails, duration_seconds, width, height, metadata, created_at, updated_at`

func scanMediaAsset(row interface{ Scan(...any) error }) (*MediaAsset, error) {
	var a MediaAsset
	var thumbs []byte
	err := row.Scan(
		&a.ID, &a.Status, &a.SourceKey, &a.OwnerEmail, &a.ManifestURL,
		&thumbs, &a.DurationSeconds, &a.Width, &a.Height, &a.Metadata,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(thumbs) > 0 {
		if err := json.Unmarshal(thumbs, &a.Thumbnails); err != nil {
			return nil, fmt.Errorf("decode thumbnails: %w", err)
		}
	}
	return &a, nil
}

// GetMediaAsset fetches one asset by id.
func (q *Queries) GetMediaAsset(ctx context.Context, id uuid.UUID) (*MediaAsset, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+mediaAssetColumns+` FROM media_assets WHERE id = $1`, id)
	return scanMediaAsset(row)
}

// CreateMediaAssetParams contains the parameters for registering an uploaded source.
type CreateMediaAssetParams struct {
	ID         uuid.UUID
	SourceKey  string
	OwnerEmail *string
}

// CreateMediaAsset registers a freshly uploaded source video in PENDING state.
func (q *Queries) CreateMediaAsset(ctx context.Context, params CreateMediaAssetParams) (*MediaAsset, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO media_assets (id, status, source_key, owner_email)
		VALUES ($1, $2, $3, $4)
		RETURNING `+mediaAssetColumns,
		params.ID, MediaStatusPending, params.SourceKey, params.OwnerEmail)
	return scanMediaAsset(row)
}

// MarkMediaAssetProcessing moves an asset into PROCESSING at job start.
// A FAILED asset may re-enter PROCESSING on a new job attempt.
func (q *Queries) MarkMediaAssetProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE media_assets
		SET status = $2, updated_at = now()
		WHERE id = $1`,
		id, MediaStatusProcessing)
	return err
}

// FinishMediaAssetReadyParams carries the published pipeline outputs.
type FinishMediaAssetReadyParams struct {
	ID              uuid.UUID
	ManifestURL     string
	Thumbnails      []string
	DurationSeconds int32
	Width           int32
	Height          int32
	Metadata        MetadataMap
}

// FinishMediaAssetReady records a successful pipeline run in one statement.
// Failure keys left by an earlier attempt are stripped before the merge so a
// READY asset never carries a stale error.
func (q *Queries) FinishMediaAssetReady(ctx context.Context, params FinishMediaAssetReadyParams) error {
	thumbs, err := json.Marshal(params.Thumbnails)
	if err != nil {
		return fmt.Errorf("encode thumbnails: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		UPDATE media_assets
		SET status = $2,
		    manifest_url = $3,
		    thumbnails = $4::jsonb,
		    duration_seconds = $5,
		    width = $6,
		    height = $7,
		    metadata = (metadata - 'error' - 'failed_at') || $8::jsonb,
		    updated_at = now()
		WHERE id = $1`,
		params.ID, MediaStatusReady, params.ManifestURL, thumbs,
		params.DurationSeconds, params.Width, params.Height, params.Metadata)
	return err
}

// FinishMediaAssetFailed records a failed pipeline run. The error message and
// failure timestamp are merged into the metadata blob.
func (q *Queries) FinishMediaAssetFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	blob := MetadataMap{
		"error":     errMsg,
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	}
	_, err := q.db.Exec(ctx, `
		UPDATE media_assets
		SET status = $2,
		    metadata = metadata || $3::jsonb,
		    updated_at = now()
		WHERE id = $1`,
		id, MediaStatusFailed, blob)
	return err
}

// RecoverOrphanedAssets resets assets stuck in PROCESSING whose job attempt no
// longer holds a queue row in processing state. Run at worker startup.
func (q *Queries) RecoverOrphanedAssets(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE media_assets a
		SET status = $1, updated_at = now()
		WHERE a.status = $2
		  AND NOT EXISTS (
		    SELECT 1 FROM transcode_jobs j
		    WHERE j.asset_id = a.id AND j.status = 'processing'
		  )`,
		MediaStatusPending, MediaStatusProcessing)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
