package storage

import (
	"errors"
	"io"
)

// ErrSizeLimitExceeded is returned by Save when the stream grows past the
// configured per-file cap. The partial blob is removed before returning.
var ErrSizeLimitExceeded = errors.New("file exceeds size limit")

// ErrBlobMissing is returned by Open when the metadata points at a path
// that no longer exists on disk.
var ErrBlobMissing = errors.New("blob missing on disk")

// Storage defines the interface for blob storage operations. Paths are
// relative names generated by the upload pipeline; the implementation owns
// the root directory.
type Storage interface {
	// Save streams r to the given path, returning the byte count written.
	// On any failure the partial blob is cleaned up.
	Save(path string, r io.Reader) (int64, error)

	// Open returns a reader over the blob at path.
	Open(path string) (io.ReadCloser, error)

	// Delete removes the blob at path.
	Delete(path string) error

	// Exists reports whether a blob is present at path.
	Exists(path string) bool

	// Path resolves a blob name to the path recorded in metadata.
	Path(name string) string
}
