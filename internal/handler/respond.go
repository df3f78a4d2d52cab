package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/localbucket/bucketd/internal/apperr"
)

// errorResponse is the machine-readable error envelope sent to clients.
// Internal detail never leaves the server; it is logged instead.
type errorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	MaxSize  int64  `json:"maxSize,omitempty"`
	MaxFiles int64  `json:"maxFiles,omitempty"`
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondErr(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// respondAppErr maps the error taxonomy to HTTP statuses. Store and I/O
// failures become a generic 500 with full detail logged server-side.
func respondAppErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		respondErr(w, http.StatusNotFound, "not_found", "File not found")

	case apperr.IsValidation(err):
		respondErr(w, http.StatusBadRequest, "invalid_request", err.Error())

	default:
		if le, ok := apperr.AsLimit(err); ok {
			resp := errorResponse{Error: "limit_exceeded", Message: le.Msg}
			if le.Kind == apperr.LimitCount {
				resp.MaxFiles = le.Limit
			} else {
				resp.MaxSize = le.Limit
			}
			respondJSON(w, http.StatusBadRequest, resp)
			return
		}

		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		respondErr(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}
