package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/localbucket/bucketd/internal/apperr"
	"github.com/localbucket/bucketd/internal/checksum"
	"github.com/localbucket/bucketd/internal/model"
	"github.com/localbucket/bucketd/internal/repository"
	"github.com/localbucket/bucketd/internal/storage"
	"github.com/localbucket/bucketd/internal/validation"
)

// FileService implements the upload pipeline and file lifecycle operations
// over the metadata repository and blob storage.
type FileService struct {
	fileRepo    repository.FileRepository
	storage     storage.Storage
	maxFileSize int64
	maxBatch    int
}

func NewFileService(fileRepo repository.FileRepository, st storage.Storage, maxFileSize int64, maxBatch int) *FileService {
	return &FileService{
		fileRepo:    fileRepo,
		storage:     st,
		maxFileSize: maxFileSize,
		maxBatch:    maxBatch,
	}
}

// MaxBatch is the configured cap on files per multi-upload request.
func (s *FileService) MaxBatch() int {
	return s.maxBatch
}

// MaxFileSize is the configured per-file byte cap.
func (s *FileService) MaxFileSize() int64 {
	return s.maxFileSize
}

// storedName generates a unique on-disk filename: a millisecond timestamp
// plus a random suffix, keeping the original extension. Uniqueness comes
// from generation, not detection.
func storedName(originalName string) string {
	ext := filepath.Ext(originalName)
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("file-%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}

// Upload streams one file to disk while hashing it in the same pass, then
// registers the metadata record. The record is inserted only after the full
// byte stream has reached disk; a write failure, a client abort, or a size
// overflow leaves no row and no blob behind.
func (s *FileService) Upload(originalName, mimeType string, r io.Reader) (*model.File, error) {
	if originalName == "" {
		return nil, apperr.Validation("no file uploaded")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	name := storedName(originalName)
	hasher := checksum.New()

	start := time.Now()
	size, err := s.storage.Save(name, io.TeeReader(r, hasher))
	if err != nil {
		if errors.Is(err, storage.ErrSizeLimitExceeded) {
			return nil, &apperr.LimitError{
				Msg:   fmt.Sprintf("file %q exceeds the %d byte limit", originalName, s.maxFileSize),
				Kind:  apperr.LimitSize,
				Limit: s.maxFileSize,
			}
		}
		return nil, &apperr.IOError{Err: err}
	}

	file := &model.File{
		StoredName:   name,
		OriginalName: originalName,
		StoragePath:  s.storage.Path(name),
		Size:         size,
		MimeType:     mimeType,
		ContentHash:  checksum.Encode(hasher),
	}

	_, err = s.fileRepo.Insert(file)
	if err != nil {
		// The blob must not outlive a failed insert.
		if delErr := s.storage.Delete(name); delErr != nil {
			slog.Error("failed to delete blob during cleanup", "error", delErr, "stored_name", name)
		}
		return nil, &apperr.StoreError{Err: err}
	}

	slog.Info("upload complete",
		"id", file.ID,
		"original_name", originalName,
		"size", size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return file, nil
}

// UploadItem is one named stream in a batch.
type UploadItem struct {
	OriginalName string
	MimeType     string
	Body         io.Reader
}

// UploadFailure identifies a batch item that did not commit.
type UploadFailure struct {
	OriginalName string `json:"originalName"`
	Error        string `json:"error"`
}

// UploadBatch processes up to MaxBatch streams independently. Items fail
// individually: committed records stay committed and later items are still
// attempted. Both outcomes are reported to the caller.
func (s *FileService) UploadBatch(items []UploadItem) ([]*model.File, []UploadFailure, error) {
	if len(items) == 0 {
		return nil, nil, apperr.Validation("no files uploaded")
	}
	if len(items) > s.maxBatch {
		return nil, nil, &apperr.LimitError{
			Msg:   fmt.Sprintf("too many files: maximum is %d per upload", s.maxBatch),
			Kind:  apperr.LimitCount,
			Limit: int64(s.maxBatch),
		}
	}

	var files []*model.File
	var failures []UploadFailure
	for _, item := range items {
		file, err := s.Upload(item.OriginalName, item.MimeType, item.Body)
		if err != nil {
			slog.Warn("batch item failed", "original_name", item.OriginalName, "error", err)
			failures = append(failures, UploadFailure{
				OriginalName: item.OriginalName,
				Error:        err.Error(),
			})
			continue
		}
		files = append(files, file)
	}

	return files, failures, nil
}

// ByID fetches a single record.
func (s *FileService) ByID(id int64) (*model.File, error) {
	file, err := s.fileRepo.ByID(id)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	return file, nil
}

// Open looks up a record and returns a reader over its blob for download or
// preview. A record whose blob has gone missing out of band is a detectable
// inconsistency: it is logged and surfaced as not-found, which is what the
// client effectively observes.
func (s *FileService) Open(id int64) (*model.File, io.ReadCloser, error) {
	file, err := s.ByID(id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Open(file.StoragePath)
	if errors.Is(err, storage.ErrBlobMissing) {
		slog.Error("file exists in metadata but blob is missing", "id", id, "path", file.StoragePath)
		return nil, nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, nil, &apperr.IOError{Err: err}
	}

	return file, rc, nil
}

// Rename updates the display name only; the blob and stored name never move.
func (s *FileService) Rename(id int64, newName string) error {
	if err := validation.ValidateFileName(newName); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	changed, err := s.fileRepo.UpdateName(id, newName)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	if !changed {
		return apperr.ErrNotFound
	}

	slog.Info("file renamed", "id", id, "new_name", newName)
	return nil
}

// Delete removes the blob (best effort) and then the metadata row. A failed
// disk removal is logged, not surfaced: metadata consistency wins over
// disk-presence guarantees here.
func (s *FileService) Delete(id int64) error {
	file, err := s.ByID(id)
	if err != nil {
		return err
	}

	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil && !errors.Is(delErr, storage.ErrBlobMissing) {
		slog.Error("failed to delete blob from disk", "error", delErr, "id", id, "path", file.StoragePath)
	}
	if errors.Is(delErr, storage.ErrBlobMissing) {
		slog.Warn("blob already missing during delete", "id", id, "path", file.StoragePath)
	}

	existed, err := s.fileRepo.Delete(id)
	if err != nil {
		return &apperr.StoreError{Err: err}
	}
	if !existed {
		return apperr.ErrNotFound
	}

	slog.Info("file deleted", "id", id, "original_name", file.OriginalName)
	return nil
}

// DeleteOutcome reports the result of one id in a bulk delete.
type DeleteOutcome struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeleteMany applies Delete to each id independently and reports per-id
// outcomes. The aggregate error is logged, never returned to the caller.
func (s *FileService) DeleteMany(ids []int64) []DeleteOutcome {
	outcomes := make([]DeleteOutcome, 0, len(ids))
	var errs *multierror.Error

	for _, id := range ids {
		err := s.Delete(id)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("id %d: %w", id, err))
			outcomes = append(outcomes, DeleteOutcome{ID: id, Success: false, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, DeleteOutcome{ID: id, Success: true})
	}

	if errs.ErrorOrNil() != nil {
		slog.Warn("bulk delete finished with failures", "error", errs)
	}
	return outcomes
}

// List returns one page of filtered records plus the filtered total.
func (s *FileService) List(filter repository.Filter, page, pageSize int) ([]*model.File, int64, error) {
	files, total, err := s.fileRepo.List(filter, page, pageSize)
	if err != nil {
		return nil, 0, &apperr.StoreError{Err: err}
	}
	return files, total, nil
}

// Stats returns the aggregate summary over all records.
func (s *FileService) Stats() (*model.Stats, error) {
	stats, err := s.fileRepo.Stats()
	if err != nil {
		return nil, &apperr.StoreError{Err: err}
	}
	return stats, nil
}
