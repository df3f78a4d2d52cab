package handler

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/localbucket/bucketd/internal/config"
	"github.com/localbucket/bucketd/internal/service"
)

type SystemHandler struct {
	fileService *service.FileService
	cfg         *config.Config
	startedAt   time.Time
}

func NewSystemHandler(fileService *service.FileService, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		fileService: fileService,
		cfg:         cfg,
		startedAt:   time.Now(),
	}
}

// Index handles GET /: a JSON catalogue of the API surface.
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        h.cfg.AppName,
		"version":     h.cfg.Version,
		"description": "A local file storage API for uploading, managing, and retrieving files",
		"endpoints": map[string]string{
			"POST /upload":          "Upload a single file (multipart 'file' field)",
			"POST /upload-multiple": "Upload multiple files (multipart 'files' field)",
			"GET /files":            "List files with pagination and filters",
			"GET /file/{id}":        "Get file metadata by id",
			"GET /download/{id}":    "Download file by id",
			"GET /preview/{id}":     "Preview file inline by id",
			"PUT /file/{id}":        "Rename file by id",
			"DELETE /file/{id}":     "Delete file by id",
			"POST /files/delete":    "Delete a batch of files by id",
			"GET /stats":            "Storage statistics",
			"GET /health":           "Health check",
		},
	})
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(h.startedAt).Seconds(),
		"version":     h.cfg.Version,
		"environment": h.cfg.AppEnv,
	})
}

// Stats handles GET /stats.
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.fileService.Stats()
	if err != nil {
		respondAppErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"totalFiles":         stats.TotalFiles,
		"totalSize":          stats.TotalSize,
		"totalSizeFormatted": humanize.IBytes(uint64(stats.TotalSize)),
		"filesByType":        stats.FilesByType,
	})
}
