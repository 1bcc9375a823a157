package service

import (
	"context"
	"testing"

	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/store"
	"github.com/emrgen/recall/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func seedNodes(t *testing.T, creator string, count int) []*model.Node {
	t.Helper()

	client := newNodeService()
	nodes := make([]*model.Node, 0, count)
	for i := 0; i < count; i++ {
		node, err := client.CreateNode(context.TODO(), creator, &CreateNodeParams{Type: "text", Name: uuid.NewString()})
		assert.NoError(t, err)
		nodes = append(nodes, node)
	}

	return nodes
}

func TestAssociationService_CreatePairUnique(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 2)
	a, b := nodes[0], nodes[1]

	first, err := client.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)
	assert.Equal(t, model.DirectionForward, first.Direction())
	assert.Equal(t, int64(1), first.LinkStrength)

	// the reverse create reinforces the same row instead of adding one
	second, err := client.Create(context.TODO(), creator, b.UUID, a.UUID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.DirectionBoth, second.Direction())

	graph, err := client.GraphView(context.TODO(), creator, a.UUID)
	assert.NoError(t, err)
	assert.Len(t, graph.Associations, 1)
}

func TestAssociationService_CreateInvalid(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 1)

	_, err := client.Create(context.TODO(), creator, nodes[0].UUID, nodes[0].UUID)
	assert.ErrorIs(t, err, ErrSelfAssociation)

	_, err = client.Create(context.TODO(), creator, nodes[0].UUID, uuid.NewString())
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAssociationService_DeleteDemotes(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 2)
	a, b := nodes[0], nodes[1]

	_, err := client.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)
	_, err = client.Create(context.TODO(), creator, b.UUID, a.UUID)
	assert.NoError(t, err)

	// a partial delete of a bidirectional link demotes and re-anchors it
	assert.NoError(t, client.Delete(context.TODO(), creator, a.UUID, b.UUID, false))

	graph, err := client.GraphView(context.TODO(), creator, a.UUID)
	assert.NoError(t, err)
	assert.Len(t, graph.Associations, 1)

	remaining := graph.Associations[0]
	assert.Equal(t, b.UUID, remaining.NodeUUID)
	assert.Equal(t, a.UUID, remaining.LinkedNodeUUID)
	assert.Equal(t, model.DirectionForward, remaining.Direction())

	// a unidirectional link is deleted outright
	assert.NoError(t, client.Delete(context.TODO(), creator, b.UUID, a.UUID, false))
	graph, err = client.GraphView(context.TODO(), creator, a.UUID)
	assert.NoError(t, err)
	assert.Empty(t, graph.Associations)
}

func TestAssociationService_DeleteBidirectional(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 2)
	a, b := nodes[0], nodes[1]

	_, err := client.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)
	_, err = client.Create(context.TODO(), creator, b.UUID, a.UUID)
	assert.NoError(t, err)

	// a full delete removes the row entirely
	assert.NoError(t, client.Delete(context.TODO(), creator, a.UUID, b.UUID, true))

	err = client.Delete(context.TODO(), creator, a.UUID, b.UUID, false)
	assert.ErrorIs(t, err, ErrAssociationNotFound)
}

func TestAssociationService_Reinforce(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 2)
	a, b := nodes[0], nodes[1]

	// never creates an association
	err := client.Reinforce(context.TODO(), creator, a.UUID, b.UUID)
	assert.ErrorIs(t, err, ErrAssociationNotFound)

	assoc, err := client.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), assoc.LinkStrength)

	// two calls increment by exactly 2, whatever the direction
	assert.NoError(t, client.Reinforce(context.TODO(), creator, a.UUID, b.UUID))
	assert.NoError(t, client.Reinforce(context.TODO(), creator, b.UUID, a.UUID))

	graph, err := client.GraphView(context.TODO(), creator, a.UUID)
	assert.NoError(t, err)
	assert.Len(t, graph.Associations, 1)
	assert.Equal(t, int64(3), graph.Associations[0].LinkStrength)
}

func TestAssociationService_LinkExclusions(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 4)
	anchor, receives, originates, both := nodes[0], nodes[1], nodes[2], nodes[3]

	// anchor -> receives (receives only receives)
	_, err := client.Create(context.TODO(), creator, anchor.UUID, receives.UUID)
	assert.NoError(t, err)
	// originates -> anchor (originates starts the link)
	_, err = client.Create(context.TODO(), creator, originates.UUID, anchor.UUID)
	assert.NoError(t, err)
	// anchor <-> both
	_, err = client.Create(context.TODO(), creator, anchor.UUID, both.UUID)
	assert.NoError(t, err)
	_, err = client.Create(context.TODO(), creator, both.UUID, anchor.UUID)
	assert.NoError(t, err)

	// bidirectional mode excludes every connected node
	excluded, err := client.LinkExclusions(context.TODO(), creator, anchor.UUID, true)
	assert.NoError(t, err)
	assert.Len(t, excluded, 3)

	// unidirectional mode keeps pure receivers available as fresh targets
	excluded, err = client.LinkExclusions(context.TODO(), creator, anchor.UUID, false)
	assert.NoError(t, err)
	ids := make([]string, 0, len(excluded))
	for _, node := range excluded {
		ids = append(ids, node.UUID)
	}
	assert.Len(t, excluded, 2)
	assert.Contains(t, ids, originates.UUID)
	assert.Contains(t, ids, both.UUID)
	assert.NotContains(t, ids, receives.UUID)
}

func TestAssociationService_GraphViewInduced(t *testing.T) {
	tester.RemoveTestDir()
	tester.Setup()

	client := NewAssociationService(store.NewGormStore(tester.TestDB()))
	creator := uuid.NewString()
	nodes := seedNodes(t, creator, 4)
	a, b, c, d := nodes[0], nodes[1], nodes[2], nodes[3]

	_, err := client.Create(context.TODO(), creator, a.UUID, b.UUID)
	assert.NoError(t, err)
	_, err = client.Create(context.TODO(), creator, a.UUID, c.UUID)
	assert.NoError(t, err)
	_, err = client.Create(context.TODO(), creator, b.UUID, c.UUID)
	assert.NoError(t, err)
	// d is two hops away from a
	_, err = client.Create(context.TODO(), creator, c.UUID, d.UUID)
	assert.NoError(t, err)

	graph, err := client.GraphView(context.TODO(), creator, a.UUID)
	assert.NoError(t, err)
	assert.Len(t, graph.Nodes, 3)

	// every rendered edge has both endpoints in the rendered node list
	rendered := make(map[uint]bool)
	for _, node := range graph.Nodes {
		rendered[node.ID] = true
	}
	assert.Len(t, graph.Associations, 3)
	for _, assoc := range graph.Associations {
		assert.True(t, rendered[assoc.NodeID])
		assert.True(t, rendered[assoc.LinkedNode])
	}
}
