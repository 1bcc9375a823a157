package cache

import (
	"context"

	"github.com/emrgen/recall/internal/model"
)

// NodeCache is a read-through cache for node lookups by external identifier.
// Implementations must treat a miss as a non-error.
type NodeCache interface {
	// GetNode gets a cached node, returning nil on a miss.
	GetNode(ctx context.Context, creator, uuid string) (*model.Node, error)
	// SetNode caches a node.
	SetNode(ctx context.Context, node *model.Node) error
	// DeleteNode evicts a node.
	DeleteNode(ctx context.Context, creator, uuid string) error
}
