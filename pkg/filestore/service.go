package filestore

import (
	"context"
)

// Service defines the main interface for the file store.
//
// Every operation authorizes the caller before touching the repository or
// storage backend: anonymous callers get ErrUnauthenticated, callers
// outside the operation's allowed groups get ErrForbidden.
type Service interface {
	// IssueUploadURL generates a unique object key for the named file,
	// mints a signed upload URL and persists the file metadata record.
	IssueUploadURL(ctx context.Context, req IssueUploadURLRequest) (*UploadGrant, error)

	// IssueDownloadURL mints a signed download URL for an existing object
	// key and writes a best-effort download audit record.
	IssueDownloadURL(ctx context.Context, req IssueDownloadURLRequest) (*DownloadGrant, error)

	// ListFiles returns every file metadata record.
	ListFiles(ctx context.Context, id Identity) ([]*FileRecord, error)

	// DeleteFile removes a file's metadata record and, best-effort, its
	// stored object. Metadata deletion is authoritative.
	DeleteFile(ctx context.Context, id Identity, fileID string) (*FileRecord, error)

	// RecordDownload writes a download audit record on behalf of the
	// caller. Unlike the audit write inside IssueDownloadURL, a failure
	// here fails the operation.
	RecordDownload(ctx context.Context, req RecordDownloadRequest) (*DownloadAuditRecord, error)
}

// IssueUploadURLRequest contains parameters for IssueUploadURL.
type IssueUploadURLRequest struct {
	Identity Identity
	Filename string
}

// UploadGrant is the result of issuing an upload URL.
type UploadGrant struct {
	FileID     string `json:"fileId"`
	Key        string `json:"key"`
	URL        string `json:"url"`
	ExpiresIn  int    `json:"expiresIn"`
	UploadedBy string `json:"uploadedBy"`
}

// IssueDownloadURLRequest contains parameters for IssueDownloadURL.
// ClientIP and UserAgent feed the audit record only.
type IssueDownloadURLRequest struct {
	Identity     Identity
	Key          string
	VersionID    string
	DownloadName string
	AsAttachment bool
	ClientIP     string
	UserAgent    string
}

// DownloadGrant is the result of issuing a download URL.
type DownloadGrant struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

// RecordDownloadRequest contains parameters for RecordDownload.
type RecordDownloadRequest struct {
	Identity     Identity
	S3Key        string
	VersionID    string
	DownloadName string
	AsAttachment bool
	ClientIP     string
	UserAgent    string
}
