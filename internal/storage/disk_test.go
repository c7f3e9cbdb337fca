package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	return store
}

func TestUploadWritesBlobAndReturnsReference(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Upload(File{Name: "photo.png", Data: []byte("fake-png")})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(a.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/blobs/"+a.Key, a.URL)

	data, err := os.ReadFile(filepath.Join(store.root, a.Key))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), data)
}

func TestUploadSniffsExtensionWhenNameless(t *testing.T) {
	store := newTestStore(t)

	// Minimal plain text blob; mimetype should fall back to .txt.
	a, err := store.Upload(File{Data: []byte("just some text")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a.Key, ".txt"), "got key %q", a.Key)
}

func TestDeleteManyIsBestEffort(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Upload(File{Name: "a.txt", Data: []byte("a")})
	require.NoError(t, err)
	b, err := store.Upload(File{Name: "b.txt", Data: []byte("b")})
	require.NoError(t, err)

	// A missing key is not a failure; a traversal-shaped key is.
	err = store.DeleteMany([]string{a.Key, "no-such-key.txt", b.Key, "../escape.txt"})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(store.root, a.Key))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(store.root, b.Key))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDeleteManyEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.DeleteMany(nil))
}
