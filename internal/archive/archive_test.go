package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrgen/recall/internal/compress"
	"github.com/stretchr/testify/assert"
)

func writeTestArchive(t *testing.T, path string, manifest *Manifest) {
	t.Helper()

	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()

	w := NewWriter(f, compress.ByPath(path))
	assert.NoError(t, w.AddFile("attachment.bin", 4, bytes.NewReader([]byte("data"))))
	assert.NoError(t, w.AddJSON(NodesEntry, manifest))
	assert.NoError(t, w.AddJSON(ProfileEntry, &Profile{Username: "alice", Name: "Alice"}))
	assert.NoError(t, w.AddJSON(StampEntry, &Stamp{Version: Version}))
	assert.NoError(t, w.Close())
}

func TestArchive_RoundTrip(t *testing.T) {
	start := time.Now().Unix()
	manifest := &Manifest{
		Nodes: []ManifestNode{
			{
				ID:      1,
				UUID:    "node-1",
				Type:    "text",
				Name:    "note",
				Content: "hello",
				Associations: []ManifestAssociation{
					{NodeID: 1, NodeUUID: "node-1", LinkedNode: 2, LinkedNodeUUID: "node-2", LinkStrength: 3, LinkStart: &start},
				},
			},
			{ID: 2, UUID: "node-2", Type: "url", Name: "link"},
		},
	}

	for _, name := range []string{"pack.tar.gz", "pack.tar.br", "pack.tar.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writeTestArchive(t, path, manifest)

			arc, err := Open(path)
			assert.NoError(t, err)

			got, err := arc.Manifest()
			assert.NoError(t, err)
			assert.Len(t, got.Nodes, 2)
			assert.Equal(t, "node-1", got.Nodes[0].UUID)
			assert.Len(t, got.Nodes[0].Associations, 1)
			assert.Equal(t, "node-2", got.Nodes[0].Associations[0].LinkedNodeUUID)
			assert.NotNil(t, got.Nodes[0].Associations[0].LinkStart)
			assert.Equal(t, start, *got.Nodes[0].Associations[0].LinkStart)

			profile, err := arc.Profile()
			assert.NoError(t, err)
			assert.Equal(t, "alice", profile.Username)

			stamp, err := arc.Stamp()
			assert.NoError(t, err)
			assert.Equal(t, Version, stamp.Version)

			data, ok := arc.Entry("attachment.bin")
			assert.True(t, ok)
			assert.Equal(t, []byte("data"), data)

			_, ok = arc.Entry("missing.bin")
			assert.False(t, ok)
		})
	}
}

func TestArchive_MissingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tar.gz")

	f, err := os.Create(path)
	assert.NoError(t, err)
	w := NewWriter(f, compress.ByPath(path))
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	arc, err := Open(path)
	assert.NoError(t, err)

	_, err = arc.Manifest()
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, err = arc.Stamp()
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestArchive_Malformed(t *testing.T) {
	dir := t.TempDir()

	// not a compressed stream at all
	garbage := filepath.Join(dir, "garbage.tar.gz")
	assert.NoError(t, os.WriteFile(garbage, []byte("garbage"), 0o644))
	_, err := Open(garbage)
	assert.ErrorIs(t, err, ErrMalformed)

	// a valid stream whose manifest carries fields this version does not know
	unknown := filepath.Join(dir, "unknown.tar.gz")
	f, err := os.Create(unknown)
	assert.NoError(t, err)
	w := NewWriter(f, compress.ByPath(unknown))
	assert.NoError(t, w.AddEntry(NodesEntry, []byte(`{"nodes":[],"surprise":true}`)))
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	arc, err := Open(unknown)
	assert.NoError(t, err)
	_, err = arc.Manifest()
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Open(filepath.Join(dir, "absent.tar.gz"))
	assert.Error(t, err)
}
