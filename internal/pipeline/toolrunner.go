package pipeline

import (
	"context"
	"log/slog"

	"github.com/lumenlms/pipeline/pkg/ffmpeg"
)

// ToolRunner abstracts the external media tools so the pipeline can be
// exercised without ffmpeg on the path.
type ToolRunner interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	Run(ctx context.Context, cmd *ffmpeg.Command) error
}

// ExecToolRunner shells out to the real binaries.
type ExecToolRunner struct{}

func (ExecToolRunner) Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	return ffmpeg.Probe(ctx, path)
}

func (ExecToolRunner) Run(ctx context.Context, cmd *ffmpeg.Command) error {
	slog.Debug("running ffmpeg", "args", cmd.Build())
	res := cmd.RunCapture(ctx)
	return res.Err
}
