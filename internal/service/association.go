package service

import (
	"context"
	"errors"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/store"
)

// graphRenderLimit caps the node count returned by the visualization query.
const graphRenderLimit = 100

// NewAssociationService creates a new AssociationService.
func NewAssociationService(store store.Store) *AssociationService {
	return &AssociationService{
		store: store,
	}
}

// AssociationService manages the typed, weighted edges between nodes. For
// any unordered node pair owned by one creator there is at most one row;
// the second create call for a pair reinforces it to bidirectional instead
// of inserting a reverse edge.
type AssociationService struct {
	store store.Store
}

// Graph is the payload of the visualization query. Every association
// endpoint is guaranteed to appear in Nodes.
type Graph struct {
	Nodes        []*model.Node
	Associations []*model.Association
}

// Create links node a to node b. When the pair is already linked the
// existing row is promoted to bidirectional and returned; no duplicate row
// is ever inserted.
func (s *AssociationService) Create(ctx context.Context, creator, aID, bID string) (*model.Association, error) {
	if aID == bID {
		return nil, ErrSelfAssociation
	}

	a, err := s.store.GetNodeByUUID(ctx, creator, aID)
	if err != nil {
		return nil, translate(err)
	}
	b, err := s.store.GetNodeByUUID(ctx, creator, bID)
	if err != nil {
		return nil, translate(err)
	}

	existing, err := s.store.GetAssociationByPair(ctx, creator, a.ID, b.ID)
	if err == nil {
		if existing.Direction() == model.DirectionForward {
			existing.SetDirection(model.DirectionBoth)
			existing.UpdatedAt = time.Now()
			if err := s.store.UpdateAssociation(ctx, existing); err != nil {
				return nil, translate(err)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, store.ErrAssociationNotFound) {
		return nil, translate(err)
	}

	now := time.Now()
	assoc := &model.Association{
		NodeID:         a.ID,
		NodeUUID:       a.UUID,
		NodeType:       a.Type,
		LinkedNode:     b.ID,
		LinkedNodeUUID: b.UUID,
		LinkedNodeType: b.Type,
		LinkStrength:   1,
		Creator:        creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateAssociation(ctx, assoc); err != nil {
		return nil, translate(err)
	}

	return assoc, nil
}

// Delete unlinks a -> b. A bidirectional row is demoted instead of deleted
// unless bidirectional is set: the surviving unidirectional link is
// re-anchored at b so that a no longer originates it.
func (s *AssociationService) Delete(ctx context.Context, creator, aID, bID string, bidirectional bool) error {
	a, err := s.store.GetNodeByUUID(ctx, creator, aID)
	if err != nil {
		return translate(err)
	}
	b, err := s.store.GetNodeByUUID(ctx, creator, bID)
	if err != nil {
		return translate(err)
	}

	assoc, err := s.store.GetAssociationByPair(ctx, creator, a.ID, b.ID)
	if err != nil {
		return translate(err)
	}

	if assoc.Direction() == model.DirectionBoth && !bidirectional {
		if assoc.NodeID != b.ID {
			assoc.Swap()
		}
		assoc.SetDirection(model.DirectionForward)
		assoc.UpdatedAt = time.Now()

		return translate(s.store.UpdateAssociation(ctx, assoc))
	}

	return translate(s.store.DeleteAssociationByID(ctx, assoc.ID))
}

// Reinforce bumps the link strength of an existing association by one. It
// never creates an association.
func (s *AssociationService) Reinforce(ctx context.Context, creator, aID, bID string) error {
	a, err := s.store.GetNodeByUUID(ctx, creator, aID)
	if err != nil {
		return translate(err)
	}
	b, err := s.store.GetNodeByUUID(ctx, creator, bID)
	if err != nil {
		return translate(err)
	}

	assoc, err := s.store.GetAssociationByPair(ctx, creator, a.ID, b.ID)
	if err != nil {
		return translate(err)
	}

	return translate(s.store.IncrementLinkStrength(ctx, assoc.ID))
}

// LinkExclusions returns the nodes that must not be offered as link
// candidates for the anchor. In bidirectional mode every connected node is
// excluded; in unidirectional mode only nodes that already originate a link
// on the pair are, so a node may still be suggested as the target of a
// fresh unidirectional link even when it already receives one.
func (s *AssociationService) LinkExclusions(ctx context.Context, creator, anchorID string, bidirectional bool) ([]*model.Node, error) {
	anchor, err := s.store.GetNodeByUUID(ctx, creator, anchorID)
	if err != nil {
		return nil, translate(err)
	}

	assocs, err := s.store.ListNodeAssociations(ctx, creator, anchor.ID, 0)
	if err != nil {
		return nil, translate(err)
	}

	excluded := mapset.NewSet[uint]()
	for _, assoc := range assocs {
		other := assoc.LinkedNode
		if assoc.LinkedNode == anchor.ID {
			other = assoc.NodeID
		}

		if bidirectional {
			excluded.Add(other)
			continue
		}

		// the other node originates the link either as the anchor of the
		// row or through bidirectionality
		if assoc.LinkedNode == anchor.ID || assoc.LinkStart != nil {
			excluded.Add(other)
		}
	}

	if excluded.Cardinality() == 0 {
		return nil, nil
	}

	nodes, err := s.store.ListNodesByIDs(ctx, creator, excluded.ToSlice())
	if err != nil {
		return nil, translate(err)
	}

	return nodes, nil
}

// GraphView gathers the anchor and its strongest neighbors up to the render
// limit, then the induced edge set over the gathered nodes, so the returned
// association list never references a node missing from the node list. With
// no anchor it renders the most recently updated nodes.
func (s *AssociationService) GraphView(ctx context.Context, creator, anchorID string) (*Graph, error) {
	var nodes []*model.Node
	ids := mapset.NewSet[uint]()

	if anchorID != "" {
		anchor, err := s.store.GetNodeByUUID(ctx, creator, anchorID)
		if err != nil {
			return nil, translate(err)
		}

		assocs, err := s.store.ListNodeAssociations(ctx, creator, anchor.ID, graphRenderLimit)
		if err != nil {
			return nil, translate(err)
		}

		ids.Add(anchor.ID)
		for _, assoc := range assocs {
			ids.Add(assoc.NodeID)
			ids.Add(assoc.LinkedNode)
		}

		nodes, err = s.store.ListNodesByIDs(ctx, creator, ids.ToSlice())
		if err != nil {
			return nil, translate(err)
		}
	} else {
		var err error
		nodes, err = s.store.ListRecentNodes(ctx, creator, graphRenderLimit)
		if err != nil {
			return nil, translate(err)
		}

		for _, node := range nodes {
			ids.Add(node.ID)
		}
	}

	assocs, err := s.store.ListAssociationsAmong(ctx, creator, ids.ToSlice())
	if err != nil {
		return nil, translate(err)
	}

	return &Graph{
		Nodes:        nodes,
		Associations: assocs,
	}, nil
}
