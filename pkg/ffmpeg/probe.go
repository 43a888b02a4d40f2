package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult contains media file metadata.
type ProbeResult struct {
	// Video properties
	Width      int    // video width in pixels
	Height     int    // video height in pixels
	VideoCodec string // video codec name (h264, vp9, etc.)

	// Audio properties
	AudioCodec string // audio codec name (aac, opus, etc.)

	// File properties
	Duration   float64 // duration in seconds
	Bitrate    int64   // total bitrate in bits per second
	Size       int64   // file size in bytes
	FormatName string  // container format (mp4, webm, mkv, etc.)

	// Stream counts
	VideoStreams int
	AudioStreams int
}

// ffprobeOutput matches ffprobe JSON output structure.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe on a file and returns metadata.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	var output ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	result := &ProbeResult{}

	if output.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(output.Format.Duration, 64)
	}
	if output.Format.BitRate != "" {
		result.Bitrate, _ = strconv.ParseInt(output.Format.BitRate, 10, 64)
	}
	if output.Format.Size != "" {
		result.Size, _ = strconv.ParseInt(output.Format.Size, 10, 64)
	}
	result.FormatName = output.Format.FormatName

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			result.VideoStreams++
			// Only take first video stream metadata
			if result.VideoCodec == "" {
				result.Width = stream.Width
				result.Height = stream.Height
				result.VideoCodec = stream.CodecName
			}
		case "audio":
			result.AudioStreams++
			if result.AudioCodec == "" {
				result.AudioCodec = stream.CodecName
			}
		}
	}

	return result, nil
}
