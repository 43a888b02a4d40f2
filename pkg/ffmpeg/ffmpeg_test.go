package ffmpeg

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "h264 hls rendition",
			input:  "source.mp4",
			output: "720p/playlist.m3u8",
			opts: []Option{
				VideoCodec("libx264"),
				Preset("veryfast"),
				VideoBitrate(1500),
				MaxRate(1500),
				PixelFormat("yuv420p"),
				AudioCodec("aac"),
				AudioBitrate(128),
				ScaleFit(1280, 720),
				HLSOutput(6, "720p/segment_%03d.ts"),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "source.mp4",
				"-c:v", "libx264",
				"-preset", "veryfast",
				"-b:v", "1500k",
				"-maxrate", "1500k",
				"-bufsize", "3000k",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac",
				"-b:a", "128k",
				"-f", "hls",
				"-hls_time", "6",
				"-hls_playlist_type", "vod",
				"-hls_list_size", "0",
				"-hls_segment_filename", "720p/segment_%03d.ts",
				"-vf", "scale=1280:720:force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2",
				"720p/playlist.m3u8",
			},
		},
		{
			name:   "thumbnail frame extraction",
			input:  "source.mp4",
			output: "thumb_2.jpg",
			opts: []Option{
				Seek(15 * time.Second),
				ScaleWidth(640),
				Frames(1),
				Quality(4),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "15.000",
				"-i", "source.mp4",
				"-frames:v", "1",
				"-q:v", "4",
				"-vf", "scale=640:-2",
				"thumb_2.jpg",
			},
		},
		{
			name:   "fractional seek",
			input:  "source.mp4",
			output: "thumb_1.jpg",
			opts: []Option{
				SeekSeconds(7.5),
				Frames(1),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "7.500",
				"-i", "source.mp4",
				"-frames:v", "1",
				"thumb_1.jpg",
			},
		},
		{
			name:   "filters are combined into one chain",
			input:  "in.mp4",
			output: "out.m3u8",
			opts: []Option{
				ScaleFit(1920, 1080),
				DrawTextBox("student@example.com", 24),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-vf", "scale=1920:1080:force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2," +
					"drawtext=text='student@example.com':fontsize=24:fontcolor=white@0.8:box=1:boxcolor=black@0.4:boxborderw=8:x=w-text_w-20:y=h-text_h-20",
				"out.m3u8",
			},
		},
		{
			name:   "extra args escape hatch",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				ExtraArgs("-map", "0:v:0"),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-map", "0:v:0",
				"out.mp4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand(tt.input, tt.output, tt.opts...)
			assert.Equal(t, tt.wantArgs, cmd.Build())
		})
	}
}

func TestEscapeDrawText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"user@example.com", "user@example.com"},
		{"a:b", `a\:b`},
		{"100%", `100\%`},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
		{"a,b:c", `a\,b\:c`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeDrawText(tt.in), "input %q", tt.in)
	}
}

func TestFilterChain(t *testing.T) {
	cmd := NewCommand("in.mp4", "out.m3u8",
		ScaleFit(854, 480),
		DrawTextBox("owner", 24),
	)
	chain := cmd.FilterChain()
	assert.Contains(t, chain, "force_original_aspect_ratio=decrease")
	assert.Contains(t, chain, "drawtext=text='owner'")

	plain := NewCommand("in.mp4", "out.m3u8", ScaleFit(854, 480))
	assert.NotContains(t, plain.FilterChain(), "drawtext")
}

func TestErrorMessageTruncatesStderr(t *testing.T) {
	err := &Error{
		Args:   []string{"-i", "in.mp4", "out.m3u8"},
		Stderr: "line1\nline2\nline3\nline4\nline5",
		Err:    errors.New("exit status 1"),
	}
	msg := err.Error()
	assert.Contains(t, msg, "line5")
	assert.NotContains(t, msg, "line1")
	require.ErrorContains(t, err.Unwrap(), "exit status 1")
	assert.Equal(t, "line1\nline2\nline3\nline4\nline5", err.FullStderr())
	assert.Equal(t, "ffmpeg -i in.mp4 out.m3u8", err.Command())
}
