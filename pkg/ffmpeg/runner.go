package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunResult contains the outcome of an ffmpeg invocation, including captured
// stderr.
type RunResult struct {
	// Logs contains the full ffmpeg stderr output (codec info, encoding
	// stats, warnings, etc.). Available regardless of success or failure.
	Logs string
	// Err is non-nil when ffmpeg exited with a non-zero status.
	Err error
}

// run executes ffmpeg and waits for completion.
func run(ctx context.Context, args []string) error {
	return runCapture(ctx, args).Err
}

// runCapture executes ffmpeg, waits for completion, and returns stderr output.
func runCapture(ctx context.Context, args []string) RunResult {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		err = &Error{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return RunResult{
		Logs: stderr.String(),
		Err:  err,
	}
}

// Error represents an ffmpeg execution error with context.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

// Error implements error. Only the last few stderr lines are included; the
// full output stays available through FullStderr.
func (e *Error) Error() string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	var lastLines string
	if len(lines) > 3 {
		lastLines = strings.Join(lines[len(lines)-3:], "\n")
	} else {
		lastLines = strings.Join(lines, "\n")
	}

	if lastLines != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, lastLines)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// FullStderr returns the complete stderr output.
func (e *Error) FullStderr() string {
	return e.Stderr
}

// Command returns the command that was executed.
func (e *Error) Command() string {
	return "ffmpeg " + strings.Join(e.Args, " ")
}
