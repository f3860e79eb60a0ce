package filestore

import (
	"strings"
	"time"
)

// FileRecord is the metadata row kept for every issued upload.
// The object bytes live in the storage bucket under S3Key; the record
// is the authoritative source of truth for the file's existence.
type FileRecord struct {
	FileID     string    `json:"fileId"`
	S3Key      string    `json:"s3Key"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy"`
}

// DownloadAuditRecord is an append-only audit entry written whenever a
// download URL is issued or a download is explicitly recorded.
type DownloadAuditRecord struct {
	DownloadID      string    `json:"downloadId"`
	S3Key           string    `json:"s3Key"`
	VersionID       string    `json:"versionId,omitempty"`
	RequestedBy     string    `json:"requestedBy"`
	RequestedAt     time.Time `json:"requestedAt"`
	IP              string    `json:"ip,omitempty"`
	UserAgent       string    `json:"userAgent,omitempty"`
	AsAttachment    bool      `json:"asAttachment"`
	DownloadName    string    `json:"downloadName,omitempty"`
	TTLSeconds      int       `json:"ttlSeconds"`
	RequesterGroups []string  `json:"requesterGroups,omitempty"`
}

// UnknownUser is the username sentinel used when no identifying claim
// is present.
const UnknownUser = "unknown"

// Identity is the caller identity derived from token claims for a single
// request. It is never persisted.
type Identity struct {
	Username string
	Email    string
	Groups   []string
}

// IsAuthenticated reports whether the identity carries any evidence of
// authentication. A sentinel username with no email and no groups is
// treated as anonymous; an identity with zero groups but a real username
// is authenticated (and will fail authorization instead).
func (id Identity) IsAuthenticated() bool {
	return id.Username != UnknownUser || id.Email != "" || len(id.Groups) > 0
}

// HasAnyGroup reports whether the identity belongs to at least one of the
// given groups. Comparison is case-insensitive. An empty group set never
// matches, even against an empty allowed list.
func (id Identity) HasAnyGroup(allowed ...string) bool {
	if len(id.Groups) == 0 {
		return false
	}
	for _, g := range id.Groups {
		for _, a := range allowed {
			if strings.EqualFold(g, a) {
				return true
			}
		}
	}
	return false
}

// NormalizedGroups returns the identity's groups lower-cased, for audit
// snapshots.
func (id Identity) NormalizedGroups() []string {
	if len(id.Groups) == 0 {
		return nil
	}
	out := make([]string, len(id.Groups))
	for i, g := range id.Groups {
		out[i] = strings.ToLower(g)
	}
	return out
}
