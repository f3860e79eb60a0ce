package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// Default table names; overridable for deployments that keep the original
// table naming.
const (
	DefaultFilesTable   = "files"
	DefaultHistoryTable = "download_history"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements filestore.Repository using PostgreSQL
type Repository struct {
	db           DBTX
	filesTable   string
	historyTable string
}

// tableNamePattern matches plain SQL identifiers. Table names are spliced
// into statements directly, so anything else is rejected and the default
// kept.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RepositoryOption customizes a Repository.
type RepositoryOption func(*Repository)

// WithFilesTable overrides the file metadata table name.
func WithFilesTable(name string) RepositoryOption {
	return func(r *Repository) {
		if tableNamePattern.MatchString(name) {
			r.filesTable = name
		}
	}
}

// WithHistoryTable overrides the download audit table name.
func WithHistoryTable(name string) RepositoryOption {
	return func(r *Repository) {
		if tableNamePattern.MatchString(name) {
			r.historyTable = name
		}
	}
}

// New creates a new PostgreSQL repository
func New(db DBTX, opts ...RepositoryOption) *Repository {
	r := &Repository{
		db:           db,
		filesTable:   DefaultFilesTable,
		historyTable: DefaultHistoryTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool, opts ...RepositoryOption) *Repository {
	return New(pool, opts...)
}

// handlePostgresError maps low-level pgx errors onto repository errors.
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return filestore.ErrFileNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateFile(ctx context.Context, record *filestore.FileRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, s3_key, filename, uploaded_at, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)`, r.filesTable)

	_, err := r.db.Exec(ctx, query,
		record.FileID, record.S3Key, record.Filename, record.UploadedAt, record.UploadedBy)
	if err != nil {
		return r.handlePostgresError("CreateFile", err)
	}
	return nil
}

func (r *Repository) GetFile(ctx context.Context, fileID string) (*filestore.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT file_id, s3_key, filename, uploaded_at, uploaded_by
		FROM %s WHERE file_id = $1`, r.filesTable)

	var record filestore.FileRecord
	err := r.db.QueryRow(ctx, query, fileID).Scan(
		&record.FileID, &record.S3Key, &record.Filename, &record.UploadedAt, &record.UploadedBy)
	if err != nil {
		return nil, r.handlePostgresError("GetFile", err)
	}
	return &record, nil
}

func (r *Repository) ListFiles(ctx context.Context) ([]*filestore.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT file_id, s3_key, filename, uploaded_at, uploaded_by
		FROM %s ORDER BY uploaded_at, file_id`, r.filesTable)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("ListFiles", err)
	}
	defer rows.Close()

	var records []*filestore.FileRecord
	for rows.Next() {
		var record filestore.FileRecord
		if err := rows.Scan(&record.FileID, &record.S3Key, &record.Filename,
			&record.UploadedAt, &record.UploadedBy); err != nil {
			return nil, r.handlePostgresError("ListFiles", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("ListFiles", err)
	}

	return records, nil
}

func (r *Repository) DeleteFile(ctx context.Context, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, r.filesTable)

	tag, err := r.db.Exec(ctx, query, fileID)
	if err != nil {
		return r.handlePostgresError("DeleteFile", err)
	}
	if tag.RowsAffected() == 0 {
		return filestore.ErrFileNotFound
	}
	return nil
}

func (r *Repository) CreateDownloadRecord(ctx context.Context, record *filestore.DownloadAuditRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			download_id, s3_key, version_id, requested_by, requested_at,
			ip, user_agent, as_attachment, download_name, ttl_seconds, requester_groups
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, r.historyTable)

	_, err := r.db.Exec(ctx, query,
		record.DownloadID, record.S3Key, record.VersionID, record.RequestedBy,
		record.RequestedAt, record.IP, record.UserAgent, record.AsAttachment,
		record.DownloadName, record.TTLSeconds, record.RequesterGroups)
	if err != nil {
		return r.handlePostgresError("CreateDownloadRecord", err)
	}
	return nil
}
