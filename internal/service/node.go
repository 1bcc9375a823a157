package service

import (
	"context"
	"os"
	"time"

	"github.com/emrgen/recall/internal/cache"
	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// previewMaxLen bounds the renderable summary stored on a node.
	previewMaxLen = 512
	// defaultPageSize is the search page size when the caller does not set one.
	defaultPageSize = 20
)

// hiddenSearchTypes are excluded from browsing results unless the caller
// supplies a query term.
var hiddenSearchTypes = []string{model.NodeTypeUser, model.NodeTypePackage, model.NodeTypeZip}

// NewNodeService creates a new NodeService. The cache is optional.
func NewNodeService(store store.Store, locator *filestore.Locator, cache cache.NodeCache) *NodeService {
	return &NodeService{
		store:   store,
		locator: locator,
		cache:   cache,
	}
}

// NodeService manages the node records of the content graph. Callers are
// trusted to have authenticated the owner and validated the payload.
type NodeService struct {
	store   store.Store
	locator *filestore.Locator
	cache   cache.NodeCache
}

// CreateNodeParams is a pre-validated node creation payload.
type CreateNodeParams struct {
	Type     string
	IsFile   bool
	Name     string
	Preview  string
	Comment  string
	Content  string
	Path     string
	Metadata string
	Color    string
	Pinned   bool
}

// UpdateNodeParams is a partial update; only non-nil fields overwrite.
type UpdateNodeParams struct {
	Name     *string
	Preview  *string
	Comment  *string
	Content  *string
	Path     *string
	Metadata *string
	Color    *string
	Pinned   *bool
}

// CreateNode creates a new node owned by creator. The uuid is generated here
// and never reassigned.
func (s *NodeService) CreateNode(ctx context.Context, creator string, params *CreateNodeParams) (*model.Node, error) {
	now := time.Now()
	node := &model.Node{
		UUID:      uuid.NewString(),
		Creator:   creator,
		Type:      params.Type,
		IsFile:    params.IsFile,
		Name:      params.Name,
		Preview:   clipPreview(params.Preview),
		Comment:   params.Comment,
		Content:   params.Content,
		Path:      params.Path,
		Metadata:  params.Metadata,
		Color:     params.Color,
		Pinned:    params.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateNode(ctx, node); err != nil {
		return nil, translate(err)
	}

	return node, nil
}

// GetNode retrieves a node by external identifier.
func (s *NodeService) GetNode(ctx context.Context, creator, id string) (*model.Node, error) {
	if s.cache != nil {
		if node, err := s.cache.GetNode(ctx, creator, id); err == nil && node != nil {
			return node, nil
		}
	}

	node, err := s.store.GetNodeByUUID(ctx, creator, id)
	if err != nil {
		return nil, translate(err)
	}

	if s.cache != nil {
		if err := s.cache.SetNode(ctx, node); err != nil {
			logrus.Errorf("failed to cache node %s: %v", node.UUID, err)
		}
	}

	return node, nil
}

// UpdateNode applies a partial update; only supplied fields overwrite.
func (s *NodeService) UpdateNode(ctx context.Context, creator, id string, params *UpdateNodeParams) (*model.Node, error) {
	node, err := s.store.GetNodeByUUID(ctx, creator, id)
	if err != nil {
		return nil, translate(err)
	}

	if params.Name != nil {
		node.Name = *params.Name
	}
	if params.Preview != nil {
		node.Preview = clipPreview(*params.Preview)
	}
	if params.Comment != nil {
		node.Comment = *params.Comment
	}
	if params.Content != nil {
		node.Content = *params.Content
	}
	if params.Path != nil {
		node.Path = *params.Path
	}
	if params.Metadata != nil {
		node.Metadata = *params.Metadata
	}
	if params.Color != nil {
		node.Color = *params.Color
	}
	if params.Pinned != nil {
		node.Pinned = *params.Pinned
	}
	node.UpdatedAt = time.Now()

	if err := s.store.UpdateNode(ctx, node); err != nil {
		return nil, translate(err)
	}

	s.evict(ctx, creator, id)
	return node, nil
}

// MarkViewed records a view of the node.
func (s *NodeService) MarkViewed(ctx context.Context, creator, id string) error {
	node, err := s.store.GetNodeByUUID(ctx, creator, id)
	if err != nil {
		return translate(err)
	}

	now := time.Now()
	err = s.store.UpdateNodeColumns(ctx, node.ID, map[string]any{
		"views":      node.Views + 1,
		"viewed_at":  now,
		"updated_at": now,
	})
	if err != nil {
		return translate(err)
	}

	s.evict(ctx, creator, id)
	return nil
}

// SearchNodes returns a page of the owner's nodes matching query by
// substring across name, preview and content. With an empty query it lists
// browsable nodes, hiding identity and package artifacts.
func (s *NodeService) SearchNodes(ctx context.Context, creator, query string, page, perPage int) ([]*model.Node, int64, error) {
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if page < 0 {
		page = 0
	}

	nodes, total, err := s.store.SearchNodes(ctx, creator, query, hiddenSearchTypes, page*perPage, perPage)
	if err != nil {
		return nil, 0, translate(err)
	}

	return nodes, total, nil
}

// DeleteNode removes a node, its backing file when the path resolves inside
// the managed attachment root, and every association touching it. The
// association cascade runs before the row delete since it is keyed by the
// internal id.
func (s *NodeService) DeleteNode(ctx context.Context, creator, id string) error {
	node, err := s.store.GetNodeByUUID(ctx, creator, id)
	if err != nil {
		return translate(err)
	}

	if node.IsFile && node.Path != "" {
		if s.locator.Inside(node.Path) {
			if err := os.Remove(node.Path); err != nil && !os.IsNotExist(err) {
				logrus.Errorf("failed to remove attachment %s: %v", node.Path, err)
			}
			s.locator.Cleanup(node.Path)
		} else {
			logrus.Warnf("attachment %s is outside the storage root, leaving it in place", node.Path)
		}
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteAssociationsByNode(ctx, node.ID); err != nil {
			return err
		}

		return tx.DeleteNode(ctx, node.ID)
	})
	if err != nil {
		return translate(err)
	}

	s.evict(ctx, creator, id)
	return nil
}

func (s *NodeService) evict(ctx context.Context, creator, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteNode(ctx, creator, id); err != nil {
		logrus.Errorf("failed to evict node %s from cache: %v", id, err)
	}
}

func clipPreview(preview string) string {
	if len(preview) > previewMaxLen {
		return preview[:previewMaxLen]
	}
	return preview
}
