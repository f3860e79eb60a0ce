package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// Backend is an in-memory implementation of the filestore.BlobStore
// interface. URLs it issues are synthetic and only useful to assert
// against; the byte payloads live in process memory. Used by tests and
// local development.
type Backend struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
	updated map[string]time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		baseURL: "https://memory.local",
		objects: make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

func (b *Backend) signedURL(verb, objectKey string, query url.Values) string {
	query.Set("verb", verb)
	return fmt.Sprintf("%s/%s?%s", b.baseURL, url.PathEscape(objectKey), query.Encode())
}

// GetUploadURL returns a synthetic signed upload URL for the key.
func (b *Backend) GetUploadURL(ctx context.Context, objectKey string) (string, error) {
	return b.signedURL("put", objectKey, url.Values{}), nil
}

// GetDownloadURL returns a synthetic signed download URL for the key.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, opts filestore.DownloadURLOptions) (string, error) {
	query := url.Values{}
	if opts.VersionID != "" {
		query.Set("versionId", opts.VersionID)
	}
	if disposition := opts.ContentDisposition(); disposition != "" {
		query.Set("response-content-disposition", disposition)
	}
	return b.signedURL("get", objectKey, query), nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey, versionID string) (*filestore.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, filestore.ErrObjectNotFound
	}

	return &filestore.ObjectMeta{
		Key:       objectKey,
		Size:      int64(len(data)),
		UpdatedAt: b.updated[objectKey],
	}, nil
}

// Upload stores content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	b.updated[objectKey] = time.Now()
	return nil
}

// Download reads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, filestore.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes content. Deleting a missing key is not an error,
// matching object-storage semantics.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	delete(b.updated, objectKey)
	return nil
}
