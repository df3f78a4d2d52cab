package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/localbucket/bucketd/internal/model"
	"github.com/localbucket/bucketd/internal/repository"
	"github.com/localbucket/bucketd/internal/service"
)

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload handles POST /upload: a single multipart file under the "file"
// field, streamed to storage without buffering the whole body.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	part, err := nextFilePart(r, "file")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid_request", "No file uploaded")
		return
	}
	defer part.Close()

	file, err := h.fileService.Upload(part.FileName(), part.Header.Get("Content-Type"), part)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, file)
}

// UploadMultiple handles POST /upload-multiple: up to MaxBatch files under
// the "files" field. Items succeed or fail independently; the response
// reports committed records alongside identified failures.
func (h *FileHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid_request", "No files uploaded")
		return
	}

	var (
		files    []*model.File
		failures []service.UploadFailure
		seen     int
	)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			respondErr(w, http.StatusBadRequest, "invalid_request", "Malformed multipart body")
			return
		}
		if part.FormName() != "files" || part.FileName() == "" {
			part.Close()
			continue
		}

		seen++
		if seen > h.fileService.MaxBatch() {
			part.Close()
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error:    "limit_exceeded",
				Message:  fmt.Sprintf("too many files: maximum is %d per upload", h.fileService.MaxBatch()),
				MaxFiles: int64(h.fileService.MaxBatch()),
			})
			return
		}

		// Parts arrive sequentially off the wire, so each one runs the
		// pipeline as it is read. Failures are per-item: committed files
		// stay committed and later parts are still attempted.
		file, err := h.fileService.Upload(part.FileName(), part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil {
			slog.Warn("batch item failed", "original_name", part.FileName(), "error", err)
			failures = append(failures, service.UploadFailure{
				OriginalName: part.FileName(),
				Error:        err.Error(),
			})
			continue
		}
		files = append(files, file)
	}

	if seen == 0 {
		respondErr(w, http.StatusBadRequest, "invalid_request", "No files uploaded")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"files":       orEmptyFiles(files),
		"count":       len(files),
		"failures":    orEmptyFailures(failures),
		"failedCount": len(failures),
	})
}

func orEmptyFiles(files []*model.File) []*model.File {
	if files == nil {
		return []*model.File{}
	}
	return files
}

func orEmptyFailures(failures []service.UploadFailure) []service.UploadFailure {
	if failures == nil {
		return []service.UploadFailure{}
	}
	return failures
}

// nextFilePart advances the multipart reader to the first file part with
// the given form name.
func nextFilePart(r *http.Request, field string) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// List handles GET /files with pagination and the filter query parameters.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 10)
	if limit > 100 {
		limit = 100
	}

	filter := repository.Filter{
		Search:   q.Get("search"),
		MimeType: q.Get("type"),
		MinSize:  queryInt64(q.Get("minSize"), 0),
		MaxSize:  queryInt64(q.Get("maxSize"), 0),
		Start:    queryTime(q.Get("startDate")),
		End:      queryTime(q.Get("endDate")),
	}

	files, total, err := h.fileService.List(filter, page, limit)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"pagination": map[string]any{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

// Get handles GET /file/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	file, err := h.fileService.ByID(id)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, file)
}

// Download handles GET /download/{id} with an attachment disposition.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "attachment")
}

// Preview handles GET /preview/{id} with an inline disposition.
func (h *FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "inline")
}

func (h *FileHandler) stream(w http.ResponseWriter, r *http.Request, disposition string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	file, rc, err := h.fileService.Open(id)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.OriginalName))
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))

	_, err = io.Copy(w, rc)
	if err != nil {
		// Headers are gone; all we can do is abort the response.
		slog.Error("blob stream aborted", "error", err, "id", id)
	}
}

type renameRequest struct {
	NewName string `json:"newName"`
}

// Rename handles PUT /file/{id}: updates the display name only.
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid_request", "New name is required")
		return
	}

	err := h.fileService.Rename(id, req.NewName)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"newName": req.NewName,
	})
}

// Delete handles DELETE /file/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.fileService.Delete(id)
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDelete handles POST /files/delete with per-id outcome reporting.
func (h *FileHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil || len(req.IDs) == 0 {
		respondErr(w, http.StatusBadRequest, "invalid_request", "At least one file id is required")
		return
	}

	outcomes := h.fileService.DeleteMany(req.IDs)

	deleted := 0
	for _, o := range outcomes {
		if o.Success {
			deleted++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results": outcomes,
		"deleted": deleted,
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid_request", "File id must be an integer")
		return 0, false
	}
	return id, true
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func queryInt64(raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// queryTime accepts RFC 3339 timestamps or bare dates.
func queryTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
