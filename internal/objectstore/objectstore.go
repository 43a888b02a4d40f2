// Package objectstore abstracts the object storage bucket that holds source
// uploads and published playback packages.
package objectstore

import (
	"context"
	"io"
	"strings"
)

// Storage is the narrow object storage surface the pipeline needs. Source
// downloads and output uploads go through the same interface.
type Storage interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error
	PublicURL(key string) string
}

const (
	// Playlists may be replaced by a future job attempt, so clients must
	// revalidate often.
	cacheControlPlaylist = "public, max-age=60, must-revalidate"
	// Segments and thumbnails live at positional keys written once per
	// successful job; they are safe to cache for a year.
	cacheControlImmutable = "public, max-age=31536000, immutable"
)

// CacheControlForKey returns the Cache-Control header for a storage key based
// on its asset class.
func CacheControlForKey(key string) string {
	if strings.HasSuffix(key, ".m3u8") {
		return cacheControlPlaylist
	}
	return cacheControlImmutable
}

// ContentTypeForKey returns the MIME type for a storage key.
func ContentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(key, ".ts"):
		return "video/mp2t"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
