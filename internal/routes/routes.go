package routes

import (
	"net/http"

	"github.com/localbucket/bucketd/internal/app"
	"github.com/localbucket/bucketd/internal/handler"
	"github.com/localbucket/bucketd/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	file := handler.NewFileHandler(a.FileService)
	system := handler.NewSystemHandler(a.FileService, a.Cfg)

	mux := http.NewServeMux()

	// System
	mux.HandleFunc("GET /{$}", system.Index)
	mux.HandleFunc("GET /health", system.Health)
	mux.HandleFunc("GET /stats", system.Stats)

	// Uploads
	mux.HandleFunc("POST /upload", file.Upload)
	mux.HandleFunc("POST /upload-multiple", file.UploadMultiple)

	// Files
	mux.HandleFunc("GET /files", file.List)
	mux.HandleFunc("GET /file/{id}", file.Get)
	mux.HandleFunc("GET /download/{id}", file.Download)
	mux.HandleFunc("GET /preview/{id}", file.Preview)
	mux.HandleFunc("PUT /file/{id}", file.Rename)
	mux.HandleFunc("DELETE /file/{id}", file.Delete)
	mux.HandleFunc("POST /files/delete", file.BulkDelete)

	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.CORS(a.Cfg.CORSOrigins),
		middleware.RateLimit(a.Cfg.RateLimitMaxRequests, a.Cfg.RateLimitWindow),
	)
}
