// Package ffmpeg provides a composable API for building and executing
// ffmpeg and ffprobe commands.
package ffmpeg

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Command represents an ffmpeg command being built.
type Command struct {
	input     string
	output    string
	preInput  []string // args before -i (like -ss for input seeking)
	postInput []string // args after -i
	filters   []string // collected -vf filters, joined into one chain
}

// Option modifies a Command. Options are composable and order-independent
// (ffmpeg will receive args in correct order regardless of option order).
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command with input/output and applies options.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{
		input:  input,
		output: output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Output returns the command's output path.
func (c *Command) Output() string {
	return c.output
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}

	args = append(args, c.preInput...)
	args = append(args, "-i", c.input)
	args = append(args, c.postInput...)

	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}

	args = append(args, c.output)
	return args
}

// FilterChain returns the combined -vf filter string, or "" when no video
// filters were applied.
func (c *Command) FilterChain() string {
	return strings.Join(c.filters, ",")
}

// Run executes the ffmpeg command and waits for completion.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.Build())
}

// RunCapture executes the ffmpeg command and returns captured stderr logs
// alongside any error.
func (c *Command) RunCapture(ctx context.Context) RunResult {
	return runCapture(ctx, c.Build())
}

// Run builds and executes an ffmpeg command in one call.
func Run(ctx context.Context, input, output string, opts ...Option) error {
	return NewCommand(input, output, opts...).Run(ctx)
}

// --- Seeking ---

// Seek sets the start position (input seeking, before -i).
func Seek(start time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatSeconds(start.Seconds()))
	})
}

// SeekSeconds sets the start position from a float seconds value.
func SeekSeconds(secs float64) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatSeconds(secs))
	})
}

// --- Video codec ---

// VideoCodec sets the video codec (-c:v).
func VideoCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:v", codec)
	})
}

// VideoBitrate sets the target video bitrate in kbps (-b:v).
func VideoBitrate(kbps int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-b:v", itoa(kbps)+"k")
	})
}

// MaxRate caps the video bitrate and sizes the VBV buffer accordingly.
func MaxRate(kbps int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput,
			"-maxrate", itoa(kbps)+"k",
			"-bufsize", itoa(kbps*2)+"k",
		)
	})
}

// Preset sets the encoding preset (ultrafast, fast, medium, etc.).
func Preset(name string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-preset", name)
	})
}

// PixelFormat sets the pixel format (-pix_fmt).
func PixelFormat(fmt string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-pix_fmt", fmt)
	})
}

// --- Audio codec ---

// AudioCodec sets the audio codec (-c:a).
func AudioCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:a", codec)
	})
}

// AudioBitrate sets the audio bitrate in kbps (-b:a).
func AudioBitrate(kbps int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-b:a", itoa(kbps)+"k")
	})
}

// NoAudio disables audio in output (-an).
var NoAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-an")
})

// --- Filters ---

// Filter adds a video filter to the filter chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// --- Image output ---

// Frames sets the number of frames to output (-frames:v).
func Frames(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-frames:v", itoa(n))
	})
}

// Quality sets the output quality for images (-q:v), 1-31, lower is better.
func Quality(q int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-q:v", itoa(q))
	})
}

// --- Misc ---

// ExtraArgs adds raw arguments (escape hatch for unsupported options).
func ExtraArgs(args ...string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, args...)
	})
}

// --- Utility ---

func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', 3, 64)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
