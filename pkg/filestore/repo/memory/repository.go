package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// Repository implements filestore.Repository using in-memory storage
type Repository struct {
	mu        sync.RWMutex
	files     map[string]*filestore.FileRecord
	downloads []*filestore.DownloadAuditRecord
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		files: make(map[string]*filestore.FileRecord),
	}
}

func (r *Repository) CreateFile(ctx context.Context, record *filestore.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	recordCopy := *record
	r.files[record.FileID] = &recordCopy

	return nil
}

func (r *Repository) GetFile(ctx context.Context, fileID string) (*filestore.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.files[fileID]
	if !exists {
		return nil, filestore.ErrFileNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) ListFiles(ctx context.Context) ([]*filestore.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*filestore.FileRecord, 0, len(r.files))
	for _, record := range r.files {
		recordCopy := *record
		records = append(records, &recordCopy)
	}

	// Map iteration order is random; keep listings stable.
	sort.Slice(records, func(i, j int) bool {
		if records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].FileID < records[j].FileID
		}
		return records[i].UploadedAt.Before(records[j].UploadedAt)
	})

	return records, nil
}

func (r *Repository) DeleteFile(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[fileID]; !exists {
		return filestore.ErrFileNotFound
	}
	delete(r.files, fileID)

	return nil
}

func (r *Repository) CreateDownloadRecord(ctx context.Context, record *filestore.DownloadAuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recordCopy := *record
	if record.RequesterGroups != nil {
		recordCopy.RequesterGroups = append([]string(nil), record.RequesterGroups...)
	}
	r.downloads = append(r.downloads, &recordCopy)

	return nil
}

// DownloadRecords returns a snapshot of the audit log. The Repository
// interface exposes no read path for audit records; this accessor exists
// for tests and local inspection.
func (r *Repository) DownloadRecords() []*filestore.DownloadAuditRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*filestore.DownloadAuditRecord, len(r.downloads))
	for i, record := range r.downloads {
		recordCopy := *record
		out[i] = &recordCopy
	}
	return out
}
