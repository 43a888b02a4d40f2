package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StagingDir is the scratch arena for one job attempt. Everything the job
// touches on local disk lives under a single directory so cleanup is one
// RemoveAll regardless of how far the job got.
type StagingDir struct {
	path string
}

func NewStagingDir(root string, assetID, jobID uuid.UUID) (*StagingDir, error) {
	path := filepath.Join(root, fmt.Sprintf("%s-%s", assetID, jobID))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &StagingDir{path: path}, nil
}

func (s *StagingDir) Path() string { return s.path }

// File returns the path for a file directly under the staging root.
func (s *StagingDir) File(name string) string {
	return filepath.Join(s.path, name)
}

// VariantDir creates and returns the per-rendition output directory.
func (s *StagingDir) VariantDir(name string) (string, error) {
	dir := filepath.Join(s.path, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create variant dir %s: %w", name, err)
	}
	return dir, nil
}

// ThumbsDir creates and returns the thumbnail output directory.
func (s *StagingDir) ThumbsDir() (string, error) {
	dir := filepath.Join(s.path, "thumbs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbs dir: %w", err)
	}
	return dir, nil
}

// Remove deletes the staging directory. A failed removal is logged and
// swallowed so it never masks the job outcome.
func (s *StagingDir) Remove() {
	if err := os.RemoveAll(s.path); err != nil {
		slog.Warn("failed to remove staging dir", "path", s.path, "error", err)
	}
}
