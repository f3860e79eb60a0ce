// Package objectkey builds the storage keys new uploads are stored under.
package objectkey

import (
	"fmt"
	"strings"
)

// UploadPrefix is the bucket prefix all uploaded objects live under.
const UploadPrefix = "uploads"

// UploadGenerator produces keys of the form uploads/{fileID}/{filename}.
// The fileID segment is generated server-side per upload, so two uploads
// of the same filename never collide.
type UploadGenerator struct{}

// NewUploadGenerator creates a new upload key generator.
func NewUploadGenerator() *UploadGenerator {
	return &UploadGenerator{}
}

// GenerateKey builds the object key for a new upload. The client-supplied
// filename is sanitized so it cannot introduce extra path segments.
func (g *UploadGenerator) GenerateKey(fileID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", UploadPrefix, fileID, sanitizeFilename(filename))
}

// sanitizeFilename strips path separators and leading dot sequences from
// a client-supplied filename.
func sanitizeFilename(filename string) string {
	clean := strings.NewReplacer("/", "_", "\\", "_").Replace(filename)
	clean = strings.Trim(clean, ". ")
	if clean == "" {
		clean = "unnamed"
	}
	return clean
}
