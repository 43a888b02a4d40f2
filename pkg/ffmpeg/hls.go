package ffmpeg

import (
	"fmt"
)

// HLSOutput configures a VOD HLS rendition: fixed-duration MPEG-TS segments
// written to segmentPattern plus the variant playlist given as the command
// output. segmentDuration is the target segment length in seconds (default 6).
func HLSOutput(segmentDuration int, segmentPattern string) Option {
	if segmentDuration <= 0 {
		segmentDuration = 6
	}
	return ExtraArgs(
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", segmentDuration),
		"-hls_playlist_type", "vod",
		"-hls_list_size", "0",
		"-hls_segment_filename", segmentPattern,
	)
}
