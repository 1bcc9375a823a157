package store

import (
	"context"
	"errors"

	"github.com/emrgen/recall/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateNode(ctx context.Context, node *model.Node) error {
	return g.db.WithContext(ctx).Create(node).Error
}

func (g *GormStore) GetNodeByUUID(ctx context.Context, creator, id string) (*model.Node, error) {
	var node model.Node
	err := g.db.WithContext(ctx).Where("creator = ? AND uuid = ?", creator, id).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &node, nil
}

func (g *GormStore) GetNodeByID(ctx context.Context, id uint) (*model.Node, error) {
	var node model.Node
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &node, nil
}

func (g *GormStore) ListNodesByIDs(ctx context.Context, creator string, ids []uint) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).Where("creator = ? AND id IN ?", creator, ids).Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) ListNodesByCreator(ctx context.Context, creator string) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).Where("creator = ?", creator).Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) GetUserNode(ctx context.Context, creator string) (*model.Node, error) {
	var node model.Node
	err := g.db.WithContext(ctx).
		Where("creator = ? AND type = ?", creator, model.NodeTypeUser).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &node, nil
}

func (g *GormStore) SearchNodes(ctx context.Context, creator, query string, hiddenTypes []string, offset, limit int) ([]*model.Node, int64, error) {
	tx := g.db.WithContext(ctx).Model(&model.Node{}).Where("creator = ?", creator)

	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("name LIKE ? OR preview LIKE ? OR content LIKE ?", pattern, pattern, pattern)
	} else if len(hiddenTypes) > 0 {
		tx = tx.Where("type NOT IN ?", hiddenTypes)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var nodes []*model.Node
	err := tx.Order("pinned desc, updated_at desc").Offset(offset).Limit(limit).Find(&nodes).Error
	return nodes, total, err
}

func (g *GormStore) ListRecentNodes(ctx context.Context, creator string, limit int) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).
		Where("creator = ?", creator).
		Order("updated_at desc").
		Limit(limit).
		Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) UpdateNode(ctx context.Context, node *model.Node) error {
	return g.db.WithContext(ctx).Save(node).Error
}

func (g *GormStore) UpdateNodeColumns(ctx context.Context, id uint, values map[string]any) error {
	return g.db.WithContext(ctx).Model(&model.Node{}).Where("id = ?", id).UpdateColumns(values).Error
}

func (g *GormStore) DeleteNode(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Delete(&model.Node{}, id).Error
}

func (g *GormStore) ListNodesByImportID(ctx context.Context, creator, importID string) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).Where("creator = ? AND import_id = ?", creator, importID).Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) DeleteNodesByImportID(ctx context.Context, creator, importID string) error {
	return g.db.WithContext(ctx).
		Where("creator = ? AND import_id = ?", creator, importID).
		Delete(&model.Node{}).Error
}

func (g *GormStore) CreateAssociation(ctx context.Context, assoc *model.Association) error {
	return g.db.WithContext(ctx).Create(assoc).Error
}

func (g *GormStore) GetAssociationByPair(ctx context.Context, creator string, a, b uint) (*model.Association, error) {
	var assoc model.Association
	err := g.db.WithContext(ctx).
		Where("creator = ? AND ((node_id = ? AND linked_node = ?) OR (node_id = ? AND linked_node = ?))",
			creator, a, b, b, a).
		First(&assoc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssociationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &assoc, nil
}

func (g *GormStore) UpdateAssociation(ctx context.Context, assoc *model.Association) error {
	return g.db.WithContext(ctx).Save(assoc).Error
}

func (g *GormStore) DeleteAssociationByID(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Delete(&model.Association{}, id).Error
}

func (g *GormStore) DeleteAssociationsByNode(ctx context.Context, nodeID uint) error {
	return g.db.WithContext(ctx).
		Where("node_id = ? OR linked_node = ?", nodeID, nodeID).
		Delete(&model.Association{}).Error
}

func (g *GormStore) IncrementLinkStrength(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).
		Model(&model.Association{}).
		Where("id = ?", id).
		UpdateColumn("link_strength", gorm.Expr("link_strength + ?", 1)).Error
}

func (g *GormStore) ListNodeAssociations(ctx context.Context, creator string, nodeID uint, limit int) ([]*model.Association, error) {
	var assocs []*model.Association
	tx := g.db.WithContext(ctx).
		Where("creator = ? AND (node_id = ? OR linked_node = ?)", creator, nodeID, nodeID).
		Order("link_strength desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	err := tx.Find(&assocs).Error
	return assocs, err
}

func (g *GormStore) ListAssociationsAmong(ctx context.Context, creator string, ids []uint) ([]*model.Association, error) {
	var assocs []*model.Association
	err := g.db.WithContext(ctx).
		Where("creator = ? AND node_id IN ? AND linked_node IN ?", creator, ids, ids).
		Find(&assocs).Error
	return assocs, err
}

func (g *GormStore) ListAnchoredAssociations(ctx context.Context, creator string, nodeID uint) ([]*model.Association, error) {
	var assocs []*model.Association
	err := g.db.WithContext(ctx).
		Where("creator = ? AND node_id = ?", creator, nodeID).
		Find(&assocs).Error
	return assocs, err
}

func (g *GormStore) ListAssociationsByImportID(ctx context.Context, creator, importID string) ([]*model.Association, error) {
	var assocs []*model.Association
	err := g.db.WithContext(ctx).
		Where("creator = ? AND import_id = ?", creator, importID).
		Find(&assocs).Error
	return assocs, err
}

func (g *GormStore) DeleteAssociationsByImportID(ctx context.Context, creator, importID string) error {
	return g.db.WithContext(ctx).
		Where("creator = ? AND import_id = ?", creator, importID).
		Delete(&model.Association{}).Error
}

func (g *GormStore) RetargetImportedAssociations(ctx context.Context, importID string, oldID uint, oldUUID string, newID uint, newUUID, newType string) error {
	return g.db.WithContext(ctx).
		Model(&model.Association{}).
		Where("import_id = ? AND linked_node = ? AND linked_node_uuid = ?", importID, oldID, oldUUID).
		UpdateColumns(map[string]any{
			"linked_node":      newID,
			"linked_node_uuid": newUUID,
			"linked_node_type": newType,
		}).Error
}

func (g *GormStore) RedirectNodeAssociations(ctx context.Context, creator string, from *model.Node, to *model.Node) error {
	err := g.db.WithContext(ctx).
		Model(&model.Association{}).
		Where("creator = ? AND node_id = ?", creator, from.ID).
		UpdateColumns(map[string]any{
			"node_id":   to.ID,
			"node_uuid": to.UUID,
			"node_type": to.Type,
		}).Error
	if err != nil {
		return err
	}

	return g.db.WithContext(ctx).
		Model(&model.Association{}).
		Where("creator = ? AND linked_node = ?", creator, from.ID).
		UpdateColumns(map[string]any{
			"linked_node":      to.ID,
			"linked_node_uuid": to.UUID,
			"linked_node_type": to.Type,
		}).Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
