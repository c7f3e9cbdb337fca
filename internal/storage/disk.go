package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/rgoyal/huddle/internal/errs"
	"github.com/rgoyal/huddle/internal/models"
)

// deleteBatchSize mirrors the 100-resource limit of hosted providers so a
// provider-backed BlobStore can swap in without changing callers.
const deleteBatchSize = 100

// DiskStore keeps blobs as flat files under a root directory and serves
// them through the HTTP server's public base URL.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *DiskStore) Upload(f File) (models.Attachment, error) {
	ext := filepath.Ext(f.Name)
	if ext == "" {
		ext = mimetype.Detect(f.Data).Extension()
	}
	key := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(d.root, key), f.Data, 0o644); err != nil {
		log.Printf("Error storing blob %s: %v", key, err)
		return models.Attachment{}, errs.Storage("Error uploading files")
	}

	return models.Attachment{
		Key: key,
		URL: fmt.Sprintf("%s/blobs/%s", d.baseURL, key),
	}, nil
}

func (d *DiskStore) DeleteMany(keys []string) error {
	var failed []string
	for i := 0; i < len(keys); i += deleteBatchSize {
		end := min(i+deleteBatchSize, len(keys))
		for _, key := range keys[i:end] {
			// Reject anything that could escape the blob root.
			if key != filepath.Base(key) {
				failed = append(failed, key)
				continue
			}
			if err := os.Remove(filepath.Join(d.root, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Printf("Error deleting blob %s: %v", key, err)
				failed = append(failed, key)
			}
		}
	}
	if len(failed) > 0 {
		return errs.Storage(fmt.Sprintf("Failed to delete %d of %d blobs", len(failed), len(keys)))
	}
	return nil
}
