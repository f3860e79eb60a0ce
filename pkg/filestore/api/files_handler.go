package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// FilesHandler handles the file management API endpoints
type FilesHandler struct {
	service   filestore.Service
	tokenAuth *jwtauth.JWTAuth
}

// NewFilesHandler creates a new files handler. tokenAuth verifies the
// bearer tokens identities are derived from; it may be nil when token
// verification happens upstream (e.g. behind an authorizing gateway) and
// a Verifier is mounted by the caller instead.
func NewFilesHandler(service filestore.Service, tokenAuth *jwtauth.JWTAuth) *FilesHandler {
	return &FilesHandler{
		service:   service,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the router for files endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Every response, success or failure, carries JSON and permissive
	// CORS headers.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(Recoverer)
	if h.tokenAuth != nil {
		r.Use(jwtauth.Verifier(h.tokenAuth))
	}

	r.Post("/upload-url", h.IssueUploadURL)
	r.Get("/download-url", h.IssueDownloadURL)
	r.Get("/", h.ListFiles)
	r.Delete("/{fileID}", h.DeleteFile)
	r.Post("/downloads", h.RecordDownload)

	return r
}

// IssueUploadURLRequest is the request body for issuing an upload URL
type IssueUploadURLRequest struct {
	Filename string `json:"filename"`
}

// IssueUploadURL handles POST /files/upload-url
func (h *FilesHandler) IssueUploadURL(w http.ResponseWriter, r *http.Request) {
	var req IssueUploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, &filestore.ValidationError{Field: "body", Msg: "invalid JSON"})
		return
	}

	grant, err := h.service.IssueUploadURL(r.Context(), filestore.IssueUploadURLRequest{
		Identity: IdentityFromRequest(r),
		Filename: req.Filename,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("upload URL issued", "file_id", grant.FileID, "key", grant.Key, "uploaded_by", grant.UploadedBy)
	respondJSON(w, r, http.StatusOK, grant)
}

// IssueDownloadURL handles GET /files/download-url
func (h *FilesHandler) IssueDownloadURL(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	key := decodeObjectKey(params.Get("key"))
	if key == "" {
		respondError(w, r, &filestore.ValidationError{Field: "key", Msg: "query parameter is required"})
		return
	}

	grant, err := h.service.IssueDownloadURL(r.Context(), filestore.IssueDownloadURLRequest{
		Identity:     IdentityFromRequest(r),
		Key:          key,
		VersionID:    params.Get("versionId"),
		DownloadName: params.Get("downloadName"),
		AsAttachment: parseBoolDefaultTrue(params.Get("asAttachment")),
		ClientIP:     ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, grant)
}

// FileResponse is the per-file element of the list response
type FileResponse struct {
	FileID     string `json:"fileId"`
	Key        string `json:"key"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploadedAt"`
	UploadedBy string `json:"uploadedBy"`
}

// ListFiles handles GET /files
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListFiles(r.Context(), IdentityFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	files := make([]FileResponse, 0, len(records))
	for _, record := range records {
		files = append(files, FileResponse{
			FileID:     record.FileID,
			Key:        record.S3Key,
			Filename:   record.Filename,
			UploadedAt: record.UploadedAt.Format(time.RFC3339),
			UploadedBy: record.UploadedBy,
		})
	}

	respondJSON(w, r, http.StatusOK, files)
}

// DeleteFileResponse is the response body for a successful deletion
type DeleteFileResponse struct {
	Deleted bool   `json:"deleted"`
	FileID  string `json:"fileId"`
	S3Key   string `json:"s3Key"`
}

// DeleteFile handles DELETE /files/{fileID}
func (h *FilesHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if fileID == "" {
		respondError(w, r, &filestore.ValidationError{Field: "fileId", Msg: "path parameter is required"})
		return
	}

	record, err := h.service.DeleteFile(r.Context(), IdentityFromRequest(r), fileID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("file deleted", "file_id", fileID, "key", record.S3Key)
	respondJSON(w, r, http.StatusOK, DeleteFileResponse{
		Deleted: true,
		FileID:  record.FileID,
		S3Key:   record.S3Key,
	})
}

// RecordDownloadRequest is the request body for recording a download.
// Older clients send the object key as "key" or "fileKey".
type RecordDownloadRequest struct {
	S3Key        string `json:"s3Key"`
	Key          string `json:"key"`
	FileKey      string `json:"fileKey"`
	VersionID    string `json:"versionId"`
	DownloadName string `json:"downloadName"`
	AsAttachment *bool  `json:"asAttachment"`
}

// RecordDownloadResponse is the response body for a recorded download
type RecordDownloadResponse struct {
	RecordCreated bool   `json:"recordCreated"`
	DownloadID    string `json:"downloadId"`
	S3Key         string `json:"s3Key"`
}

// RecordDownload handles POST /files/downloads
func (h *FilesHandler) RecordDownload(w http.ResponseWriter, r *http.Request) {
	var req RecordDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, &filestore.ValidationError{Field: "body", Msg: "invalid JSON"})
		return
	}

	key := req.S3Key
	if key == "" {
		key = req.Key
	}
	if key == "" {
		key = req.FileKey
	}

	asAttachment := true
	if req.AsAttachment != nil {
		asAttachment = *req.AsAttachment
	}

	record, err := h.service.RecordDownload(r.Context(), filestore.RecordDownloadRequest{
		Identity:     IdentityFromRequest(r),
		S3Key:        key,
		VersionID:    req.VersionID,
		DownloadName: req.DownloadName,
		AsAttachment: asAttachment,
		ClientIP:     ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, RecordDownloadResponse{
		RecordCreated: true,
		DownloadID:    record.DownloadID,
		S3Key:         record.S3Key,
	})
}

// decodeObjectKey undoes an extra layer of percent-encoding gateways
// apply to keys with encoded path separators. Query parsing has already
// decoded once; the second pass decodes percent escapes only, since
// query-style decoding would turn a literal "+" in a key into a space.
func decodeObjectKey(raw string) string {
	if raw == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func parseBoolDefaultTrue(raw string) bool {
	return !strings.EqualFold(raw, "false")
}
