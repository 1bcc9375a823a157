package filestore

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocator_UploadPath(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	path, err := locator.UploadPath("alice", "notes.txt")
	assert.NoError(t, err)

	sum := sha1.Sum([]byte("notes.txt"))
	h := hex.EncodeToString(sum[:])
	assert.Equal(t, filepath.Join(root, "alice", h[0:3], h[3:6], "notes.txt"), path)

	// the shard directories exist after the call
	info, err := os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// the same filename shards to the same directory for every owner
	other, err := locator.UploadPath("bob", "notes.txt")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "bob", h[0:3], h[3:6], "notes.txt"), other)
}

func TestLocator_Dedupe(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	first, err := locator.UploadPath("alice", "photo.png")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(first, []byte("x"), 0o644))

	// an occupied path gets a suffixed variant with the extension intact
	second, err := locator.UploadPath("alice", "photo.png")
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Dir(first), filepath.Dir(second))
	assert.True(t, strings.HasSuffix(second, ".png"))
	assert.True(t, strings.HasPrefix(filepath.Base(second), "photo-"))
}

func TestLocator_ImportPath(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	path, err := locator.ImportPath("alice", "image", "cat.jpg")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "alice", "image", "cat.jpg"), path)
}

func TestLocator_Inside(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	assert.True(t, locator.Inside(filepath.Join(root, "alice", "a.txt")))
	assert.False(t, locator.Inside(filepath.Join(root, "..", "escape.txt")))
	assert.False(t, locator.Inside(root+"sibling/a.txt"))
	assert.False(t, locator.Inside("/tmp/elsewhere.txt"))
	// the root itself is not a file location
	assert.False(t, locator.Inside(filepath.Join(root, "..")))
}

func TestLocator_Cleanup(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	path, err := locator.UploadPath("alice", "doc.pdf")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.NoError(t, os.Remove(path))
	locator.Cleanup(path)

	// both shard levels and the owner directory are reclaimed
	_, err = os.Stat(filepath.Join(root, "alice"))
	assert.True(t, os.IsNotExist(err))

	// the root survives
	info, err := os.Stat(root)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocator_CleanupStopsAtOccupied(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(root)

	a, err := locator.UploadPath("alice", "a.txt")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(a, []byte("x"), 0o644))

	b, err := locator.UploadPath("alice", "b.txt")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	assert.NoError(t, os.Remove(a))
	locator.Cleanup(a)

	// a's empty shard is gone but the owner tree holding b stays
	_, err = os.Stat(filepath.Dir(a))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b)
	assert.NoError(t, err)
}
