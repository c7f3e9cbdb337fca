// Package storage is the gateway to the external content store holding
// message attachments. The store owns opaque keys; the rest of the system
// only ever sees {key, url} pairs.
package storage

import "github.com/rgoyal/huddle/internal/models"

// File is one inbound attachment before upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type BlobStore interface {
	// Upload stores one blob and returns its stable reference.
	Upload(f File) (models.Attachment, error)

	// DeleteMany removes blobs best-effort, in provider-sized batches.
	// Partial failures are reported but must not stop the caller's
	// chat-level operation; an orphaned blob is harmless.
	DeleteMany(keys []string) error
}
