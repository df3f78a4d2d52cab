package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/localbucket/bucketd/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// Filter is the structured query over file records. All supplied predicates
// are AND-combined; zero values mean "no constraint".
type Filter struct {
	Search   string // case-insensitive contains over original_name or stored_name
	MimeType string // contains over mime_type
	MinSize  int64
	MaxSize  int64
	Start    time.Time // inclusive lower bound on uploaded_at
	End      time.Time // inclusive upper bound on uploaded_at
}

// clauses maps each set filter field to a parameterized SQL predicate.
func (f Filter) clauses() ([]string, []any) {
	var where []string
	var args []any

	if f.Search != "" {
		where = append(where, "(original_name LIKE ? OR stored_name LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.MimeType != "" {
		where = append(where, "mime_type LIKE ?")
		args = append(args, "%"+f.MimeType+"%")
	}
	if f.MinSize > 0 {
		where = append(where, "size >= ?")
		args = append(args, f.MinSize)
	}
	if f.MaxSize > 0 {
		where = append(where, "size <= ?")
		args = append(args, f.MaxSize)
	}
	if !f.Start.IsZero() {
		where = append(where, "uploaded_at >= ?")
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		where = append(where, "uploaded_at <= ?")
		args = append(args, f.End)
	}

	return where, args
}

func (f Filter) whereSQL() (string, []any) {
	where, args := f.clauses()
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

type FileRepository interface {
	Insert(file *model.File) (int64, error)
	ByID(id int64) (*model.File, error)
	List(filter Filter, page, pageSize int) ([]*model.File, int64, error)
	UpdateName(id int64, newName string) (bool, error)
	Delete(id int64) (bool, error)
	Stats() (*model.Stats, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *fileRepository {
	return &fileRepository{db: db}
}

// Insert assigns the id and timestamp. The caller must only invoke this
// after the blob is fully on disk and hashed.
func (r *fileRepository) Insert(file *model.File) (int64, error) {
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}

	query := `INSERT INTO files (stored_name, original_name, storage_path, size, mime_type, uploaded_at, content_hash)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Exec(r.db.Rebind(query),
		file.StoredName,
		file.OriginalName,
		file.StoragePath,
		file.Size,
		file.MimeType,
		file.UploadedAt,
		file.ContentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert file record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	file.ID = id
	return id, nil
}

func (r *fileRepository) ByID(id int64) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = ?`

	err := r.db.Get(file, r.db.Rebind(query), id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

// List returns one page of matching records plus the total count of the
// filtered set. Page is 1-indexed; a page past the end returns an empty
// slice with a valid total. Newest uploads first, ties in insertion order.
func (r *fileRepository) List(filter Filter, page, pageSize int) ([]*model.File, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where, args := filter.whereSQL()

	var total int64
	err := r.db.Get(&total, r.db.Rebind("SELECT COUNT(*) FROM files"+where), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	files := []*model.File{}
	query := "SELECT * FROM files" + where + " ORDER BY uploaded_at DESC, id ASC LIMIT ? OFFSET ?"
	listArgs := append(args, pageSize, (page-1)*pageSize)

	err = r.db.Select(&files, r.db.Rebind(query), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}

	return files, total, nil
}

// UpdateName changes only the display name. Returns false when no record
// with that id exists; that is not an error.
func (r *fileRepository) UpdateName(id int64, newName string) (bool, error) {
	res, err := r.db.Exec(r.db.Rebind(`UPDATE files SET original_name = ? WHERE id = ?`), newName, id)
	if err != nil {
		return false, fmt.Errorf("failed to rename file: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *fileRepository) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM files WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats aggregates over the whole table; per-type counts group by the exact
// mime type string as stored.
func (r *fileRepository) Stats() (*model.Stats, error) {
	stats := &model.Stats{}

	row := struct {
		Total int64 `db:"total"`
		Size  int64 `db:"size"`
	}{}
	err := r.db.Get(&row, `SELECT COUNT(*) AS total, COALESCE(SUM(size), 0) AS size FROM files`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}
	stats.TotalFiles = row.Total
	stats.TotalSize = row.Size

	stats.FilesByType = []model.MimeTypeCount{}
	err = r.db.Select(&stats.FilesByType,
		`SELECT mime_type, COUNT(*) AS count FROM files GROUP BY mime_type ORDER BY count DESC, mime_type ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by type: %w", err)
	}

	return stats, nil
}
