package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/store"
	"github.com/emrgen/recall/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newNodeService() *NodeService {
	return NewNodeService(
		store.NewGormStore(tester.TestDB()),
		filestore.NewLocator(tester.StorageRoot()),
		nil,
	)
}

func TestNodeService_CreateNode(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := newNodeService()
	creator := uuid.NewString()

	tests := []struct {
		name    string
		params  CreateNodeParams
	}{
		{
			name:   "text node",
			params: CreateNodeParams{Type: "text", Name: "note", Content: "remember this"},
		},
		{
			name:   "url node",
			params: CreateNodeParams{Type: "url", Name: "golang", Path: "https://go.dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := client.CreateNode(context.TODO(), creator, &tt.params)
			assert.NoError(t, err)
			assert.NotEmpty(t, node.UUID)
			assert.Equal(t, tt.params.Type, node.Type)

			got, err := client.GetNode(context.TODO(), creator, node.UUID)
			assert.NoError(t, err)
			assert.Equal(t, node.UUID, got.UUID)
			assert.Equal(t, tt.params.Content, got.Content)
			assert.Equal(t, tt.params.Path, got.Path)
		})
	}

	_, err := client.GetNode(context.TODO(), creator, uuid.NewString())
	assert.ErrorIs(t, err, ErrNodeNotFound)

	// nodes are scoped to the owning identity
	node, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text"})
	assert.NoError(t, err)
	_, err = client.GetNode(context.TODO(), uuid.NewString(), node.UUID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodeService_UpdateNode(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := newNodeService()
	creator := uuid.NewString()

	node, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{
		Type:    "text",
		Name:    "draft",
		Content: "first version",
		Color:   "red",
	})
	assert.NoError(t, err)

	// only supplied fields overwrite
	name := "final"
	pinned := true
	updated, err := client.UpdateNode(context.TODO(), creator, node.UUID, &UpdateNodeParams{
		Name:   &name,
		Pinned: &pinned,
	})
	assert.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, "first version", updated.Content)
	assert.Equal(t, "red", updated.Color)
	assert.True(t, updated.Pinned)
	assert.True(t, updated.UpdatedAt.After(node.CreatedAt) || updated.UpdatedAt.Equal(node.CreatedAt))

	_, err = client.UpdateNode(context.TODO(), creator, uuid.NewString(), &UpdateNodeParams{Name: &name})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodeService_MarkViewed(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := newNodeService()
	creator := uuid.NewString()

	node, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "image", Name: "pic"})
	assert.NoError(t, err)

	assert.NoError(t, client.MarkViewed(context.TODO(), creator, node.UUID))
	assert.NoError(t, client.MarkViewed(context.TODO(), creator, node.UUID))

	got, err := client.GetNode(context.TODO(), creator, node.UUID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
	assert.NotNil(t, got.ViewedAt)
}

func TestNodeService_SearchNodes(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := newNodeService()
	creator := uuid.NewString()

	_, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text", Name: "groceries", Content: "milk and honey"})
	assert.NoError(t, err)
	_, err = client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text", Name: "reading list", Preview: "milk wood"})
	assert.NoError(t, err)
	_, err = client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "user", Name: "milkman"})
	assert.NoError(t, err)

	// substring match across name, preview and content
	nodes, total, err := client.SearchNodes(context.TODO(), creator, "milk", 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, nodes, 3)

	// empty query hides identity and package nodes
	nodes, total, err = client.SearchNodes(context.TODO(), creator, "", 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, nodes, 2)

	// pagination
	nodes, total, err = client.SearchNodes(context.TODO(), creator, "milk", 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, nodes, 1)

	// scoped to the owner
	_, total, err = client.SearchNodes(context.TODO(), uuid.NewString(), "milk", 0, 10)
	assert.NoError(t, err)
	assert.Zero(t, total)
}

type memoryNodeCache struct {
	nodes map[string]*model.Node
}

func newMemoryNodeCache() *memoryNodeCache {
	return &memoryNodeCache{nodes: map[string]*model.Node{}}
}

func (m *memoryNodeCache) key(creator, uuid string) string {
	return creator + ":" + uuid
}

func (m *memoryNodeCache) GetNode(ctx context.Context, creator, uuid string) (*model.Node, error) {
	return m.nodes[m.key(creator, uuid)], nil
}

func (m *memoryNodeCache) SetNode(ctx context.Context, node *model.Node) error {
	m.nodes[m.key(node.Creator, node.UUID)] = node
	return nil
}

func (m *memoryNodeCache) DeleteNode(ctx context.Context, creator, uuid string) error {
	delete(m.nodes, m.key(creator, uuid))
	return nil
}

func TestNodeService_Cache(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	nodeCache := newMemoryNodeCache()
	client := NewNodeService(
		store.NewGormStore(tester.TestDB()),
		filestore.NewLocator(tester.StorageRoot()),
		nodeCache,
	)
	creator := uuid.NewString()

	node, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text", Name: "original"})
	assert.NoError(t, err)

	// the first read fills the cache
	_, err = client.GetNode(context.TODO(), creator, node.UUID)
	assert.NoError(t, err)
	cached := nodeCache.nodes[nodeCache.key(creator, node.UUID)]
	assert.NotNil(t, cached)

	// a poisoned entry proves the second read is served from the cache
	cached.Name = "from-cache"
	got, err := client.GetNode(context.TODO(), creator, node.UUID)
	assert.NoError(t, err)
	assert.Equal(t, "from-cache", got.Name)

	// updates evict; the next read refills from the store
	name := "renamed"
	_, err = client.UpdateNode(context.TODO(), creator, node.UUID, &UpdateNodeParams{Name: &name})
	assert.NoError(t, err)
	got, err = client.GetNode(context.TODO(), creator, node.UUID)
	assert.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	// view marking evicts as well
	assert.NoError(t, client.MarkViewed(context.TODO(), creator, node.UUID))
	assert.Nil(t, nodeCache.nodes[nodeCache.key(creator, node.UUID)])

	// delete leaves nothing behind
	assert.NoError(t, client.DeleteNode(context.TODO(), creator, node.UUID))
	_, err = client.GetNode(context.TODO(), creator, node.UUID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Empty(t, nodeCache.nodes)
}

func TestNodeService_DeleteNodeCascade(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	nodes := newNodeService()
	links := NewAssociationService(store.NewGormStore(tester.TestDB()))
	locator := filestore.NewLocator(tester.StorageRoot())
	creator := uuid.NewString()

	path, err := locator.UploadPath(creator, "attachment.txt")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	a, err := nodes.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "file", IsFile: true, Path: path})
	assert.NoError(t, err)
	b, err := nodes.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text", Content: "peer"})
	assert.NoError(t, err)

	_, err = links.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)

	assert.NoError(t, nodes.DeleteNode(context.TODO(), creator, a.UUID))

	// node, attachment and associations are gone
	_, err = nodes.GetNode(context.TODO(), creator, a.UUID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	err = links.Reinforce(context.TODO(), creator, a.UUID, b.UUID)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	graph, err := links.GraphView(context.TODO(), creator, b.UUID)
	assert.NoError(t, err)
	assert.Empty(t, graph.Associations)
}

func TestNodeService_DeleteNodeOutsideRoot(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	nodes := newNodeService()
	creator := uuid.NewString()

	// a file referenced outside the managed root is never unlinked
	outside := filepath.Join(t.TempDir(), "external.txt")
	assert.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	node, err := nodes.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "file", IsFile: true, Path: outside})
	assert.NoError(t, err)

	assert.NoError(t, nodes.DeleteNode(context.TODO(), creator, node.UUID))

	_, err = nodes.GetNode(context.TODO(), creator, node.UUID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
