package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStorage stores blobs as opaque files under a single root directory.
type LocalStorage struct {
	root    string
	maxSize int64 // per-file cap in bytes, 0 disables the check
}

// NewLocal creates the root directory if needed and returns a local blob
// store enforcing maxSize per saved file.
func NewLocal(root string, maxSize int64) (*LocalStorage, error) {
	err := os.MkdirAll(root, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	slog.Info("local storage ready", "dir", root, "max_file_size", maxSize)
	return &LocalStorage{root: root, maxSize: maxSize}, nil
}

func (s *LocalStorage) fullPath(path string) string {
	return filepath.Join(s.root, filepath.Base(path))
}

// Save streams r to disk in a single pass. If the stream errors or exceeds
// the size cap, the partial file is removed and nothing is left behind for
// the metadata store to reference.
func (s *LocalStorage) Save(path string, r io.Reader) (int64, error) {
	dst := s.fullPath(path)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		// Read one byte past the cap so overflow is detectable.
		src = io.LimitReader(r, s.maxSize+1)
	}

	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = ErrSizeLimitExceeded
	}

	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			slog.Error("failed to remove partial blob", "path", dst, "error", rmErr)
		}
		if err == ErrSizeLimitExceeded {
			return n, err
		}
		return n, fmt.Errorf("failed to write blob: %w", err)
	}

	return n, nil
}

func (s *LocalStorage) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(path))
	if os.IsNotExist(err) {
		return nil, ErrBlobMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(path string) error {
	err := os.Remove(s.fullPath(path))
	if os.IsNotExist(err) {
		return ErrBlobMissing
	}
	return err
}

func (s *LocalStorage) Exists(path string) bool {
	_, err := os.Stat(s.fullPath(path))
	return err == nil
}

// Path returns the on-disk path recorded in metadata for a blob name.
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.root, name)
}
