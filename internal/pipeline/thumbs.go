package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lumenlms/pipeline/pkg/ffmpeg"
)

// thumbnailEndMargin keeps the final capture point off the very last frame,
// where seeking tends to produce black or missing output.
const thumbnailEndMargin = 1.0

// thumbnailOffsets spreads count capture points evenly across the duration,
// from the first frame to just before the end.
func thumbnailOffsets(duration float64, count int) []float64 {
	offsets := make([]float64, count)
	for i := range offsets {
		offsets[i] = duration * float64(i) / float64(count-1)
	}
	last := duration - thumbnailEndMargin
	if last < offsets[count-2] {
		// Source shorter than the margin allows; split the remaining tail.
		last = (offsets[count-2] + duration) / 2
	}
	offsets[count-1] = last
	return offsets
}

// generateThumbnails captures one frame per offset as a JPEG in staging and
// returns the file paths in timeline order.
func (p *Pipeline) generateThumbnails(ctx context.Context, source string, staging *StagingDir, duration float64) ([]string, error) {
	dir, err := staging.ThumbsDir()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, p.Config.ThumbnailCount)
	for i, offset := range thumbnailOffsets(duration, p.Config.ThumbnailCount) {
		out := filepath.Join(dir, fmt.Sprintf("thumb_%d.jpg", i))
		cmd := ffmpeg.NewCommand(source, out,
			ffmpeg.SeekSeconds(offset),
			ffmpeg.ScaleWidth(p.Config.ThumbnailWidth),
			ffmpeg.Frames(1),
			ffmpeg.Quality(4),
		)
		if err := p.Runner.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("thumbnail %d at %.1fs: %w", i, offset, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}
