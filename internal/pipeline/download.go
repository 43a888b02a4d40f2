package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// downloadSource fetches the raw upload from object storage into the staging
// area and returns the local path. The original extension is preserved so the
// probe can fall back on it for container detection.
func (p *Pipeline) downloadSource(ctx context.Context, key string, staging *StagingDir) (string, error) {
	body, err := p.Store.GetObject(ctx, key)
	if err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}
	defer body.Close()

	dest := staging.File("source" + filepath.Ext(key))
	f, err := os.Create(dest)
	if err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}
	written, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}

	slog.Debug("downloaded source", "key", key, "size", humanize.Bytes(uint64(written)))
	return dest, nil
}
