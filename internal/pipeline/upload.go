package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/lumenlms/pipeline/internal/objectstore"
)

// uploadResult carries the public addresses of the published package.
type uploadResult struct {
	ManifestURL   string
	ThumbnailURLs []string
	BytesUploaded uint64
}

// uploadPackage publishes the staged artifacts under media/{assetID}/.
// Ordering is deliberate: segments before their variant playlist, every
// variant and thumbnail before the master playlist. A player that can fetch
// the master playlist can therefore fetch everything it references.
func (p *Pipeline) uploadPackage(ctx context.Context, assetID uuid.UUID, variants []EncodedVariant, thumbs []string, manifestPath string) (*uploadResult, error) {
	prefix := "media/" + assetID.String()
	result := &uploadResult{}

	for _, v := range variants {
		entries, err := os.ReadDir(v.Dir)
		if err != nil {
			return nil, &UploadError{Key: prefix + "/" + v.Profile.Name, Err: err}
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || e.Name() == variantPlaylistName {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			key := fmt.Sprintf("%s/%s/%s", prefix, v.Profile.Name, name)
			if err := p.uploadFile(ctx, filepath.Join(v.Dir, name), key, result); err != nil {
				return nil, err
			}
		}
		playlistKey := fmt.Sprintf("%s/%s/%s", prefix, v.Profile.Name, variantPlaylistName)
		if err := p.uploadFile(ctx, filepath.Join(v.Dir, variantPlaylistName), playlistKey, result); err != nil {
			return nil, err
		}
	}

	for _, thumb := range thumbs {
		key := fmt.Sprintf("%s/thumbs/%s", prefix, filepath.Base(thumb))
		if err := p.uploadFile(ctx, thumb, key, result); err != nil {
			return nil, err
		}
		result.ThumbnailURLs = append(result.ThumbnailURLs, p.Store.PublicURL(key))
	}

	masterKey := prefix + "/" + masterManifestName
	if err := p.uploadFile(ctx, manifestPath, masterKey, result); err != nil {
		return nil, err
	}
	result.ManifestURL = p.Store.PublicURL(masterKey)

	return result, nil
}

func (p *Pipeline) uploadFile(ctx context.Context, path, key string, result *uploadResult) error {
	f, err := os.Open(path)
	if err != nil {
		return &UploadError{Key: key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &UploadError{Key: key, Err: err}
	}

	start := time.Now()
	contentType := objectstore.ContentTypeForKey(key)
	cacheControl := objectstore.CacheControlForKey(key)
	if err := p.Store.PutObject(ctx, key, f, contentType, cacheControl); err != nil {
		return &UploadError{Key: key, Err: err}
	}

	result.BytesUploaded += uint64(info.Size())
	slog.Debug("uploaded artifact",
		"key", key,
		"size", humanize.Bytes(uint64(info.Size())),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
