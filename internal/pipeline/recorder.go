package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenlms/pipeline/internal/db"
)

// AssetInfo is the slice of the asset record the pipeline needs up front.
type AssetInfo struct {
	OwnerEmail string
}

// ReadyRecord is everything persisted when a job finishes successfully.
type ReadyRecord struct {
	AssetID         uuid.UUID
	ManifestURL     string
	Thumbnails      []string
	DurationSeconds int32
	Width           int32
	Height          int32
	Metadata        map[string]any
}

// StateRecorder owns the durable asset lifecycle record. State transitions
// here are authoritative: a job is only done once RecordReady lands.
type StateRecorder interface {
	FetchAsset(ctx context.Context, assetID uuid.UUID) (*AssetInfo, error)
	MarkProcessing(ctx context.Context, assetID uuid.UUID) error
	RecordReady(ctx context.Context, rec ReadyRecord) error
	RecordFailed(ctx context.Context, assetID uuid.UUID, message string) error
}

// DBStateRecorder backs the lifecycle record with the media_assets table.
type DBStateRecorder struct {
	Queries *db.Queries
}

func NewDBStateRecorder(q *db.Queries) *DBStateRecorder {
	return &DBStateRecorder{Queries: q}
}

func (r *DBStateRecorder) FetchAsset(ctx context.Context, assetID uuid.UUID) (*AssetInfo, error) {
	asset, err := r.Queries.GetMediaAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	info := &AssetInfo{}
	if asset.OwnerEmail != nil {
		info.OwnerEmail = *asset.OwnerEmail
	}
	return info, nil
}

func (r *DBStateRecorder) MarkProcessing(ctx context.Context, assetID uuid.UUID) error {
	return r.Queries.MarkMediaAssetProcessing(ctx, assetID)
}

func (r *DBStateRecorder) RecordReady(ctx context.Context, rec ReadyRecord) error {
	return r.Queries.FinishMediaAssetReady(ctx, db.FinishMediaAssetReadyParams{
		ID:              rec.AssetID,
		ManifestURL:     rec.ManifestURL,
		Thumbnails:      rec.Thumbnails,
		DurationSeconds: rec.DurationSeconds,
		Width:           rec.Width,
		Height:          rec.Height,
		Metadata:        db.MetadataMap(rec.Metadata),
	})
}

func (r *DBStateRecorder) RecordFailed(ctx context.Context, assetID uuid.UUID, message string) error {
	return r.Queries.FinishMediaAssetFailed(ctx, assetID, message)
}
