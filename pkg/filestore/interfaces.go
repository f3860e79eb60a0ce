package filestore

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for storage backends that hold the
// object bytes and mint time-limited access URLs.
type BlobStore interface {
	// GetUploadURL returns a signed URL for uploading to objectKey.
	// No existence check is performed; uploads may overwrite.
	GetUploadURL(ctx context.Context, objectKey string) (string, error)

	// GetDownloadURL returns a signed URL for downloading objectKey.
	GetDownloadURL(ctx context.Context, objectKey string, opts DownloadURLOptions) (string, error)

	// GetObjectMeta probes an object, returning ErrObjectNotFound when the
	// key (or requested version) does not exist.
	GetObjectMeta(ctx context.Context, objectKey, versionID string) (*ObjectMeta, error)

	// Upload writes content directly to objectKey.
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download reads content directly from objectKey.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object at objectKey.
	Delete(ctx context.Context, objectKey string) error
}

// DownloadURLOptions tune the response headers a signed download URL
// instructs the storage service to emit.
type DownloadURLOptions struct {
	VersionID    string
	DownloadName string
	AsAttachment bool
}

// ContentDisposition renders the options as a Content-Disposition value,
// or "" when no override is requested.
func (o DownloadURLOptions) ContentDisposition() string {
	if o.DownloadName == "" {
		return ""
	}
	disposition := "attachment"
	if !o.AsAttachment {
		disposition = "inline"
	}
	return disposition + `; filename="` + o.DownloadName + `"`
}

// ObjectMeta contains metadata about an object in storage.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// Repository defines the interface for file metadata and download audit
// persistence.
type Repository interface {
	// File metadata operations
	CreateFile(ctx context.Context, record *FileRecord) error
	GetFile(ctx context.Context, fileID string) (*FileRecord, error)
	ListFiles(ctx context.Context) ([]*FileRecord, error)
	DeleteFile(ctx context.Context, fileID string) error

	// Download audit operations. Records are append-only; there is
	// deliberately no read or delete path for them here.
	CreateDownloadRecord(ctx context.Context, record *DownloadAuditRecord) error
}

// KeyGenerator produces the object key a new upload is stored under.
type KeyGenerator interface {
	GenerateKey(fileID, filename string) string
}
