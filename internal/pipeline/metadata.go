package pipeline

import (
	"context"
)

// SourceMetadata is the subset of probe output the rest of the pipeline
// needs.
type SourceMetadata struct {
	Duration   float64
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	Bitrate    int64
}

// extractMetadata probes the downloaded source. A source without a video
// stream is rejected here, before any encoding work is spent on it.
func (p *Pipeline) extractMetadata(ctx context.Context, path string) (*SourceMetadata, error) {
	probe, err := p.Runner.Probe(ctx, path)
	if err != nil {
		return nil, &MetadataError{Path: path, Err: err}
	}
	if probe.VideoStreams == 0 {
		return nil, &MetadataError{Path: path, Reason: "no video stream"}
	}
	return &SourceMetadata{
		Duration:   probe.Duration,
		Width:      probe.Width,
		Height:     probe.Height,
		VideoCodec: probe.VideoCodec,
		AudioCodec: probe.AudioCodec,
		Bitrate:    probe.Bitrate,
	}, nil
}
