package filestore_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/objectkey"
	memoryrepo "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/repo/memory"
	memorystorage "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/storage/memory"
)

var uploadKeyPattern = regexp.MustCompile(`^uploads/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}/report\.pdf$`)

type serviceFixture struct {
	repo  *memoryrepo.Repository
	store *memorystorage.Backend
}

func setupTestService(t *testing.T, opts ...filestore.Option) (filestore.Service, *serviceFixture) {
	t.Helper()

	fixture := &serviceFixture{
		repo:  memoryrepo.New(),
		store: memorystorage.New(),
	}

	options := append([]filestore.Option{
		filestore.WithRepository(fixture.repo),
		filestore.WithBlobStore(fixture.store),
		filestore.WithKeyGenerator(objectkey.NewUploadGenerator()),
	}, opts...)

	svc, err := filestore.New(options...)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc, fixture
}

func uploader() filestore.Identity {
	return filestore.Identity{
		Username: "up@example.com",
		Email:    "up@example.com",
		Groups:   []string{"uploader"},
	}
}

func viewer() filestore.Identity {
	return filestore.Identity{
		Username: "view@example.com",
		Email:    "view@example.com",
		Groups:   []string{"viewer"},
	}
}

func admin() filestore.Identity {
	return filestore.Identity{
		Username: "admin@example.com",
		Email:    "admin@example.com",
		Groups:   []string{"admin"},
	}
}

func TestServiceCreation(t *testing.T) {
	repo := memoryrepo.New()
	store := memorystorage.New()
	gen := objectkey.NewUploadGenerator()

	tests := []struct {
		name        string
		options     []filestore.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []filestore.Option{},
			expectError: true,
		},
		{
			name: "missing blob store should fail",
			options: []filestore.Option{
				filestore.WithRepository(repo),
				filestore.WithKeyGenerator(gen),
			},
			expectError: true,
		},
		{
			name: "fully configured should succeed",
			options: []filestore.Option{
				filestore.WithRepository(repo),
				filestore.WithBlobStore(store),
				filestore.WithKeyGenerator(gen),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := filestore.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestIssueUploadURL(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	grant, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: uploader(),
		Filename: "report.pdf",
	})
	require.NoError(t, err)

	assert.Regexp(t, uploadKeyPattern, grant.Key)
	assert.Equal(t, "up@example.com", grant.UploadedBy)
	assert.NotEmpty(t, grant.URL)
	assert.Equal(t, 900, grant.ExpiresIn)
	assert.True(t, strings.Contains(grant.Key, grant.FileID))

	// Metadata record persisted alongside the grant.
	record, err := fixture.repo.GetFile(ctx, grant.FileID)
	require.NoError(t, err)
	assert.Equal(t, grant.Key, record.S3Key)
	assert.Equal(t, "report.pdf", record.Filename)
	assert.Equal(t, "up@example.com", record.UploadedBy)
	assert.False(t, record.UploadedAt.IsZero())
}

func TestIssueUploadURL_Validation(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.IssueUploadURL(context.Background(), filestore.IssueUploadURLRequest{
		Identity: uploader(),
	})
	assert.True(t, filestore.IsValidationError(err))
}

func TestIssueUploadURL_Authorization(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	_, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: viewer(),
		Filename: "report.pdf",
	})
	assert.ErrorIs(t, err, filestore.ErrForbidden)

	_, err = svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: filestore.ParseIdentity(nil),
		Filename: "report.pdf",
	})
	assert.ErrorIs(t, err, filestore.ErrUnauthenticated)

	// Denied requests leave no metadata behind.
	records, err := fixture.repo.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIssueDownloadURL_ExistenceCheck(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	_, err := svc.IssueDownloadURL(ctx, filestore.IssueDownloadURLRequest{
		Identity: viewer(),
		Key:      "uploads/nope/missing.txt",
	})
	assert.ErrorIs(t, err, filestore.ErrObjectNotFound)
	assert.Empty(t, fixture.repo.DownloadRecords(), "no audit record for a URL that was never issued")

	require.NoError(t, fixture.store.Upload(ctx, "uploads/abc/present.txt", strings.NewReader("data")))

	grant, err := svc.IssueDownloadURL(ctx, filestore.IssueDownloadURLRequest{
		Identity: viewer(),
		Key:      "uploads/abc/present.txt",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.URL)
	assert.Equal(t, 900, grant.ExpiresIn)
}

func TestIssueDownloadURL_ExistenceCheckDisabled(t *testing.T) {
	svc, _ := setupTestService(t, filestore.WithExistenceCheck(false))

	grant, err := svc.IssueDownloadURL(context.Background(), filestore.IssueDownloadURLRequest{
		Identity: viewer(),
		Key:      "uploads/nope/missing.txt",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.URL)
}

func TestIssueDownloadURL_WritesAuditRecord(t *testing.T) {
	svc, fixture := setupTestService(t, filestore.WithURLTTL(300*time.Second))
	ctx := context.Background()

	require.NoError(t, fixture.store.Upload(ctx, "uploads/abc/present.txt", strings.NewReader("data")))

	id := viewer()
	id.Groups = []string{"Viewer", "Auditors"}

	_, err := svc.IssueDownloadURL(ctx, filestore.IssueDownloadURLRequest{
		Identity:     id,
		Key:          "uploads/abc/present.txt",
		DownloadName: "report.txt",
		AsAttachment: true,
		ClientIP:     "203.0.113.9",
		UserAgent:    "curl/8.0",
	})
	require.NoError(t, err)

	records := fixture.repo.DownloadRecords()
	require.Len(t, records, 1)
	record := records[0]
	assert.NotEmpty(t, record.DownloadID)
	assert.Equal(t, "uploads/abc/present.txt", record.S3Key)
	assert.Equal(t, "view@example.com", record.RequestedBy)
	assert.Equal(t, "203.0.113.9", record.IP)
	assert.Equal(t, "curl/8.0", record.UserAgent)
	assert.True(t, record.AsAttachment)
	assert.Equal(t, "report.txt", record.DownloadName)
	assert.Equal(t, 300, record.TTLSeconds)
	assert.Equal(t, []string{"viewer", "auditors"}, record.RequesterGroups)
}

// failingAuditRepo injects audit-write failures on top of a working
// repository.
type failingAuditRepo struct {
	*memoryrepo.Repository
}

func (r *failingAuditRepo) CreateDownloadRecord(ctx context.Context, record *filestore.DownloadAuditRecord) error {
	return errors.New("history table unavailable")
}

func TestIssueDownloadURL_AuditFailureIsSwallowed(t *testing.T) {
	store := memorystorage.New()
	svc, err := filestore.New(
		filestore.WithRepository(&failingAuditRepo{memoryrepo.New()}),
		filestore.WithBlobStore(store),
		filestore.WithKeyGenerator(objectkey.NewUploadGenerator()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "uploads/abc/present.txt", strings.NewReader("data")))

	grant, err := svc.IssueDownloadURL(ctx, filestore.IssueDownloadURLRequest{
		Identity: viewer(),
		Key:      "uploads/abc/present.txt",
	})
	require.NoError(t, err, "audit failure must not fail URL issuance")
	assert.NotEmpty(t, grant.URL)
}

func TestRecordDownload(t *testing.T) {
	svc, fixture := setupTestService(t)

	record, err := svc.RecordDownload(context.Background(), filestore.RecordDownloadRequest{
		Identity:     viewer(),
		S3Key:        "uploads/abc/present.txt",
		AsAttachment: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.DownloadID)
	require.Len(t, fixture.repo.DownloadRecords(), 1)

	_, err = svc.RecordDownload(context.Background(), filestore.RecordDownloadRequest{
		Identity: viewer(),
	})
	assert.True(t, filestore.IsValidationError(err))
}

func TestRecordDownload_WriteFailureIsFatal(t *testing.T) {
	svc, err := filestore.New(
		filestore.WithRepository(&failingAuditRepo{memoryrepo.New()}),
		filestore.WithBlobStore(memorystorage.New()),
		filestore.WithKeyGenerator(objectkey.NewUploadGenerator()),
	)
	require.NoError(t, err)

	_, err = svc.RecordDownload(context.Background(), filestore.RecordDownloadRequest{
		Identity: viewer(),
		S3Key:    "uploads/abc/present.txt",
	})
	assert.Error(t, err, "explicit record call surfaces the write failure")
}

func TestListFiles(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt"} {
		_, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
			Identity: uploader(),
			Filename: name,
		})
		require.NoError(t, err)
	}

	records, err := svc.ListFiles(ctx, viewer())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.NotEmpty(t, record.FileID)
		assert.NotEmpty(t, record.S3Key)
		assert.NotEmpty(t, record.Filename)
		assert.NotEmpty(t, record.UploadedBy)
		assert.False(t, record.UploadedAt.IsZero())
	}

	_, err = svc.ListFiles(ctx, filestore.Identity{Username: "user", Groups: []string{"guest"}})
	assert.ErrorIs(t, err, filestore.ErrForbidden)
}

func TestDeleteFile(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	grant, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: uploader(),
		Filename: "doomed.txt",
	})
	require.NoError(t, err)
	require.NoError(t, fixture.store.Upload(ctx, grant.Key, strings.NewReader("bytes")))

	record, err := svc.DeleteFile(ctx, admin(), grant.FileID)
	require.NoError(t, err)
	assert.Equal(t, grant.Key, record.S3Key)

	_, err = fixture.repo.GetFile(ctx, grant.FileID)
	assert.ErrorIs(t, err, filestore.ErrFileNotFound)

	_, err = fixture.store.GetObjectMeta(ctx, grant.Key, "")
	assert.ErrorIs(t, err, filestore.ErrObjectNotFound)
}

func TestDeleteFile_MetadataNotFound(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, fixture.store.Upload(ctx, "uploads/orphan/data.bin", strings.NewReader("bytes")))

	_, err := svc.DeleteFile(ctx, admin(), "no-such-file")
	assert.ErrorIs(t, err, filestore.ErrFileNotFound)

	// No mutation: the unrelated object is untouched.
	_, err = fixture.store.GetObjectMeta(ctx, "uploads/orphan/data.bin", "")
	assert.NoError(t, err)
}

func TestDeleteFile_Forbidden(t *testing.T) {
	svc, fixture := setupTestService(t)
	ctx := context.Background()

	grant, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: uploader(),
		Filename: "keep.txt",
	})
	require.NoError(t, err)

	_, err = svc.DeleteFile(ctx, viewer(), grant.FileID)
	assert.ErrorIs(t, err, filestore.ErrForbidden)

	// Denied delete performs no mutation.
	_, err = fixture.repo.GetFile(ctx, grant.FileID)
	assert.NoError(t, err)
}

// failingDeleteStore injects object-deletion failures on top of a
// working blob store.
type failingDeleteStore struct {
	*memorystorage.Backend
}

func (s *failingDeleteStore) Delete(ctx context.Context, objectKey string) error {
	return errors.New("bucket unavailable")
}

func TestDeleteFile_ObjectDeletionFailureIgnored(t *testing.T) {
	repo := memoryrepo.New()
	svc, err := filestore.New(
		filestore.WithRepository(repo),
		filestore.WithBlobStore(&failingDeleteStore{memorystorage.New()}),
		filestore.WithKeyGenerator(objectkey.NewUploadGenerator()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	grant, err := svc.IssueUploadURL(ctx, filestore.IssueUploadURLRequest{
		Identity: uploader(),
		Filename: "stubborn.txt",
	})
	require.NoError(t, err)

	record, err := svc.DeleteFile(ctx, admin(), grant.FileID)
	require.NoError(t, err, "metadata deletion is authoritative")
	assert.Equal(t, grant.Key, record.S3Key)

	_, err = repo.GetFile(ctx, grant.FileID)
	assert.ErrorIs(t, err, filestore.ErrFileNotFound)
}
