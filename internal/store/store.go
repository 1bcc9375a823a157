package store

import (
	"context"
	"errors"

	"github.com/emrgen/recall/internal/model"
)

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrAssociationNotFound = errors.New("association not found")
)

type Store interface {
	NodeStore
	AssociationStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type NodeStore interface {
	// CreateNode inserts a new node row.
	CreateNode(ctx context.Context, node *model.Node) error
	// GetNodeByUUID retrieves a node by its external identifier, scoped to the owner.
	GetNodeByUUID(ctx context.Context, creator, id string) (*model.Node, error)
	// GetNodeByID retrieves a node by its internal id.
	GetNodeByID(ctx context.Context, id uint) (*model.Node, error)
	// ListNodesByIDs retrieves the owner's nodes matching the internal ids.
	ListNodesByIDs(ctx context.Context, creator string, ids []uint) ([]*model.Node, error)
	// ListNodesByCreator retrieves every node owned by creator.
	ListNodesByCreator(ctx context.Context, creator string) ([]*model.Node, error)
	// GetUserNode retrieves the owner's identity node.
	GetUserNode(ctx context.Context, creator string) (*model.Node, error)
	// SearchNodes retrieves a page of nodes matching query across name,
	// preview and content. Types listed in hiddenTypes are excluded when
	// the query is empty.
	SearchNodes(ctx context.Context, creator, query string, hiddenTypes []string, offset, limit int) ([]*model.Node, int64, error)
	// ListRecentNodes retrieves the most recently updated nodes.
	ListRecentNodes(ctx context.Context, creator string, limit int) ([]*model.Node, error)
	// UpdateNode saves a full node row.
	UpdateNode(ctx context.Context, node *model.Node) error
	// UpdateNodeColumns updates the given columns only, leaving the rest
	// of the row (timestamps included) untouched.
	UpdateNodeColumns(ctx context.Context, id uint, values map[string]any) error
	// DeleteNode removes a node row.
	DeleteNode(ctx context.Context, id uint) error
	// ListNodesByImportID retrieves all nodes tagged with an import provenance.
	ListNodesByImportID(ctx context.Context, creator, importID string) ([]*model.Node, error)
	// DeleteNodesByImportID removes all nodes tagged with an import provenance.
	DeleteNodesByImportID(ctx context.Context, creator, importID string) error
}

type AssociationStore interface {
	// CreateAssociation inserts a new association row.
	CreateAssociation(ctx context.Context, assoc *model.Association) error
	// GetAssociationByPair retrieves the single association for the
	// unordered node pair {a, b}, scoped to the owner.
	GetAssociationByPair(ctx context.Context, creator string, a, b uint) (*model.Association, error)
	// UpdateAssociation saves a full association row.
	UpdateAssociation(ctx context.Context, assoc *model.Association) error
	// DeleteAssociationByID removes an association row.
	DeleteAssociationByID(ctx context.Context, id uint) error
	// DeleteAssociationsByNode removes every association touching a node.
	DeleteAssociationsByNode(ctx context.Context, nodeID uint) error
	// IncrementLinkStrength atomically bumps the reinforcement counter.
	IncrementLinkStrength(ctx context.Context, id uint) error
	// ListNodeAssociations retrieves associations touching a node in
	// either direction, strongest first.
	ListNodeAssociations(ctx context.Context, creator string, nodeID uint, limit int) ([]*model.Association, error)
	// ListAssociationsAmong retrieves the induced edge set: associations
	// whose both endpoints are in ids.
	ListAssociationsAmong(ctx context.Context, creator string, ids []uint) ([]*model.Association, error)
	// ListAnchoredAssociations retrieves associations anchored at a node.
	ListAnchoredAssociations(ctx context.Context, creator string, nodeID uint) ([]*model.Association, error)
	// ListAssociationsByImportID retrieves associations tagged with an import provenance.
	ListAssociationsByImportID(ctx context.Context, creator, importID string) ([]*model.Association, error)
	// DeleteAssociationsByImportID removes associations tagged with an import provenance.
	DeleteAssociationsByImportID(ctx context.Context, creator, importID string) error
	// RetargetImportedAssociations rewrites stale target references left
	// by the first import pass from the old identifiers to the new ones.
	RetargetImportedAssociations(ctx context.Context, importID string, oldID uint, oldUUID string, newID uint, newUUID, newType string) error
	// RedirectNodeAssociations moves every reference to a node, as anchor
	// or as target, onto another node.
	RedirectNodeAssociations(ctx context.Context, creator string, from *model.Node, to *model.Node) error
}
