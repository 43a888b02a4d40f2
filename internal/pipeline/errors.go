package pipeline

import "fmt"

// The pipeline error taxonomy. Each stage wraps its failure in a typed error
// so callers can classify the outcome with errors.As while the queue decides
// whether to redispatch.

// DownloadError means the source object was unreachable or missing.
type DownloadError struct {
	Key string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download source %s: %v", e.Key, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// MetadataError means the source had no usable video stream or the probe
// tool failed.
type MetadataError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MetadataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract metadata %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("extract metadata %s: %s", e.Path, e.Reason)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// EncodeError means the transcoding tool exited non-zero for a variant.
// One failed variant aborts the whole job; no partial set is published.
type EncodeError struct {
	Variant string
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode variant %s: %v", e.Variant, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// UploadError means an artifact write to object storage failed.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError means the asset state record could not be written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
