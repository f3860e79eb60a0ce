package filestore

// Operation identifies an access-controlled file operation.
type Operation string

// Operations gated by group membership.
const (
	OpIssueUploadURL   Operation = "issue_upload_url"
	OpIssueDownloadURL Operation = "issue_download_url"
	OpListFiles        Operation = "list_files"
	OpDeleteFile       Operation = "delete_file"
	OpRecordDownload   Operation = "record_download"
)

// Group names recognized by the policy.
const (
	GroupViewer   = "viewer"
	GroupUploader = "uploader"
	GroupAdmin    = "admin"
)

// allowedGroups is the fixed per-operation policy. Not configurable at
// runtime.
var allowedGroups = map[Operation][]string{
	OpIssueUploadURL:   {GroupUploader, GroupAdmin},
	OpIssueDownloadURL: {GroupViewer, GroupUploader, GroupAdmin},
	OpListFiles:        {GroupViewer, GroupUploader, GroupAdmin},
	OpDeleteFile:       {GroupAdmin},
	OpRecordDownload:   {GroupViewer, GroupUploader, GroupAdmin},
}

// Authorize decides whether the identity may perform the operation.
// Returns ErrUnauthenticated for anonymous callers, ErrForbidden when the
// caller's groups (case-insensitive) do not intersect the operation's
// allowed groups. A caller with zero groups is always denied; an unknown
// operation has an empty allowed list and is likewise always denied.
func Authorize(id Identity, op Operation) error {
	if !id.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !id.HasAnyGroup(allowedGroups[op]...) {
		return ErrForbidden
	}
	return nil
}

// AllowedGroups returns the group names permitted to perform the
// operation.
func AllowedGroups(op Operation) []string {
	groups := allowedGroups[op]
	out := make([]string, len(groups))
	copy(out, groups)
	return out
}
