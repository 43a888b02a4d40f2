package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lumenlms/pipeline/pkg/ffmpeg"
)

const (
	variantPlaylistName = "playlist.m3u8"
	segmentPattern      = "segment_%03d.ts"
)

// EncodedVariant is one finished rendition sitting in staging, ready for
// upload.
type EncodedVariant struct {
	Profile VariantProfile
	Dir     string
}

// encodeVariants renders every ladder profile from the source. Profiles are
// encoded sequentially; the first tool failure aborts the job so a partial
// ladder is never published.
func (p *Pipeline) encodeVariants(ctx context.Context, source string, staging *StagingDir, watermark string) ([]EncodedVariant, error) {
	variants := make([]EncodedVariant, 0, len(p.Config.Profiles))
	for _, profile := range p.Config.Profiles {
		dir, err := staging.VariantDir(profile.Name)
		if err != nil {
			return nil, &EncodeError{Variant: profile.Name, Err: err}
		}

		opts := []ffmpeg.Option{
			ffmpeg.VideoCodec("libx264"),
			ffmpeg.Preset("veryfast"),
			ffmpeg.VideoBitrate(profile.VideoBitrateKbps),
			ffmpeg.MaxRate(profile.VideoBitrateKbps),
			ffmpeg.PixelFormat("yuv420p"),
			ffmpeg.AudioCodec("aac"),
			ffmpeg.AudioBitrate(profile.AudioBitrateKbps),
			ffmpeg.ScaleFit(profile.Width, profile.Height),
		}
		if watermark != "" {
			opts = append(opts, ffmpeg.DrawTextBox(watermark, p.Config.WatermarkFontSize))
		}
		opts = append(opts, ffmpeg.HLSOutput(p.Config.SegmentSeconds, filepath.Join(dir, segmentPattern)))

		cmd := ffmpeg.NewCommand(source, filepath.Join(dir, variantPlaylistName), opts...)

		start := time.Now()
		if err := p.Runner.Run(ctx, cmd); err != nil {
			return nil, &EncodeError{Variant: profile.Name, Err: err}
		}
		slog.Info("encoded variant",
			"variant", profile.Name,
			"resolution", formatResolution(profile),
			"elapsed", time.Since(start).Round(time.Millisecond))

		variants = append(variants, EncodedVariant{Profile: profile, Dir: dir})
	}
	return variants, nil
}
