package storage

import (
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/rgoyal/huddle/internal/models"
)

// UploadAll uploads every file in parallel. It is all-or-nothing: a single
// failed upload aborts the whole set and returns nothing, so a message can
// never be persisted with a partial attachment list. Blobs that did make
// it up are removed best-effort.
func UploadAll(store BlobStore, files []File) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, len(files))

	var g errgroup.Group
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			a, err := store.Upload(f)
			if err != nil {
				return err
			}
			attachments[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, a := range attachments {
			if a.Key != "" {
				stored = append(stored, a.Key)
			}
		}
		if len(stored) > 0 {
			if derr := store.DeleteMany(stored); derr != nil {
				log.Printf("Error cleaning up after failed upload: %v", derr)
			}
		}
		return nil, err
	}
	return attachments, nil
}
