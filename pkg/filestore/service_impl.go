package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultURLTTL is the signed URL validity used when none is configured.
const DefaultURLTTL = 900 * time.Second

// service implements the Service interface
type service struct {
	repository   Repository
	blobStore    BlobStore
	keyGenerator KeyGenerator
	urlTTL       time.Duration
	checkExists  bool
	now          func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the storage backend for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithKeyGenerator sets the object key generation strategy
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(s *service) {
		s.keyGenerator = gen
	}
}

// WithURLTTL sets the validity duration of issued signed URLs
func WithURLTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.urlTTL = ttl
		}
	}
}

// WithExistenceCheck toggles the object existence probe performed before
// a download URL is issued. When disabled a URL is issued regardless of
// whether the object exists.
func WithExistenceCheck(enabled bool) Option {
	return func(s *service) {
		s.checkExists = enabled
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		urlTTL:      DefaultURLTTL,
		checkExists: true,
		now:         time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.keyGenerator == nil {
		return nil, fmt.Errorf("key generator is required")
	}

	return s, nil
}

func (s *service) ttlSeconds() int {
	return int(s.urlTTL / time.Second)
}

func (s *service) IssueUploadURL(ctx context.Context, req IssueUploadURLRequest) (*UploadGrant, error) {
	if err := Authorize(req.Identity, OpIssueUploadURL); err != nil {
		return nil, err
	}
	if req.Filename == "" {
		return nil, NewValidationError("filename")
	}

	fileID := uuid.New().String()
	key := s.keyGenerator.GenerateKey(fileID, req.Filename)

	url, err := s.blobStore.GetUploadURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	uploadedBy := req.Identity.Username
	record := &FileRecord{
		FileID:     fileID,
		S3Key:      key,
		Filename:   req.Filename,
		UploadedAt: s.now().UTC(),
		UploadedBy: uploadedBy,
	}
	if err := s.repository.CreateFile(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	return &UploadGrant{
		FileID:     fileID,
		Key:        key,
		URL:        url,
		ExpiresIn:  s.ttlSeconds(),
		UploadedBy: uploadedBy,
	}, nil
}

func (s *service) IssueDownloadURL(ctx context.Context, req IssueDownloadURLRequest) (*DownloadGrant, error) {
	if err := Authorize(req.Identity, OpIssueDownloadURL); err != nil {
		return nil, err
	}
	if req.Key == "" {
		return nil, NewValidationError("key")
	}

	// Probe before signing so a missing object surfaces as not-found
	// instead of a URL that 404s at download time. Probe failures other
	// than not-found are fatal; absence of the probe is a config choice.
	if s.checkExists {
		if _, err := s.blobStore.GetObjectMeta(ctx, req.Key, req.VersionID); err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				return nil, ErrObjectNotFound
			}
			return nil, fmt.Errorf("failed to check object existence: %w", err)
		}
	}

	url, err := s.blobStore.GetDownloadURL(ctx, req.Key, DownloadURLOptions{
		VersionID:    req.VersionID,
		DownloadName: req.DownloadName,
		AsAttachment: req.AsAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	// Audit write is fire-and-forget: a history table outage must not
	// block downloads.
	record := s.auditRecord(req.Identity, req.Key, req.VersionID, req.DownloadName,
		req.AsAttachment, req.ClientIP, req.UserAgent)
	if err := s.repository.CreateDownloadRecord(ctx, record); err != nil {
		slog.Warn("failed to write download audit record",
			"key", req.Key, "requested_by", record.RequestedBy, "err", err)
	}

	return &DownloadGrant{URL: url, ExpiresIn: s.ttlSeconds()}, nil
}

func (s *service) ListFiles(ctx context.Context, id Identity) ([]*FileRecord, error) {
	if err := Authorize(id, OpListFiles); err != nil {
		return nil, err
	}

	records, err := s.repository.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return records, nil
}

func (s *service) DeleteFile(ctx context.Context, id Identity, fileID string) (*FileRecord, error) {
	if err := Authorize(id, OpDeleteFile); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, NewValidationError("fileId")
	}

	record, err := s.repository.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to load file metadata: %w", err)
	}

	// Object deletion is best-effort: the metadata record is the
	// authoritative resource, so a stray object only gets logged.
	if err := s.blobStore.Delete(ctx, record.S3Key); err != nil {
		slog.Warn("failed to delete stored object",
			"file_id", fileID, "key", record.S3Key, "err", err)
	}

	if err := s.repository.DeleteFile(ctx, fileID); err != nil {
		return nil, fmt.Errorf("failed to delete file metadata: %w", err)
	}

	return record, nil
}

func (s *service) RecordDownload(ctx context.Context, req RecordDownloadRequest) (*DownloadAuditRecord, error) {
	if err := Authorize(req.Identity, OpRecordDownload); err != nil {
		return nil, err
	}
	if req.S3Key == "" {
		return nil, NewValidationError("s3Key")
	}

	record := s.auditRecord(req.Identity, req.S3Key, req.VersionID, req.DownloadName,
		req.AsAttachment, req.ClientIP, req.UserAgent)
	if err := s.repository.CreateDownloadRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save download record: %w", err)
	}

	return record, nil
}

func (s *service) auditRecord(id Identity, key, versionID, downloadName string, asAttachment bool, ip, userAgent string) *DownloadAuditRecord {
	requestedBy := id.Email
	if requestedBy == "" {
		requestedBy = id.Username
	}
	return &DownloadAuditRecord{
		DownloadID:      uuid.New().String(),
		S3Key:           key,
		VersionID:       versionID,
		RequestedBy:     requestedBy,
		RequestedAt:     s.now().UTC(),
		IP:              ip,
		UserAgent:       userAgent,
		AsAttachment:    asAttachment,
		DownloadName:    downloadName,
		TTLSeconds:      s.ttlSeconds(),
		RequesterGroups: id.NormalizedGroups(),
	}
}
