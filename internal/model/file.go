package model

import (
	"time"
)

// File is one metadata row describing a stored blob. StoredName is the
// collision-resistant on-disk filename; OriginalName is the user-facing
// display name and the only mutable field.
type File struct {
	ID           int64     `db:"id" json:"id"`
	StoredName   string    `db:"stored_name" json:"storedName"`
	OriginalName string    `db:"original_name" json:"originalName"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Size         int64     `db:"size" json:"size"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadTimestamp"`
	ContentHash  string    `db:"content_hash" json:"hash"`
}

// MimeTypeCount is one row of the per-type grouping in Stats.
type MimeTypeCount struct {
	MimeType string `db:"mime_type" json:"mimeType"`
	Count    int64  `db:"count" json:"count"`
}

// Stats is the aggregate summary over all file records.
type Stats struct {
	TotalFiles  int64           `json:"totalFiles"`
	TotalSize   int64           `json:"totalSize"`
	FilesByType []MimeTypeCount `json:"filesByType"`
}
