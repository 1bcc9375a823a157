package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emrgen/recall/internal/archive"
	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/queue"
	"github.com/emrgen/recall/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// collectionPreviewSize is how many linked nodes a regenerated collection
// preview carries.
const collectionPreviewSize = 4

// NewImportService creates a new ImportService.
func NewImportService(store store.Store, locator *filestore.Locator, queue queue.PackageQueue) *ImportService {
	return &ImportService{
		store:   store,
		locator: locator,
		queue:   queue,
	}
}

// ImportService ingests a package archive into the local store. Every record
// gets a fresh local id and uuid; cross references are inserted stale and
// repaired in later passes, which is what makes forward references inside
// the manifest representable at all. There is no rollback: a failed import
// leaves its rows tagged with the package uuid so Undo can compensate.
type ImportService struct {
	store   store.Store
	locator *filestore.Locator
	queue   queue.PackageQueue
}

// remap is one old->new identifier mapping produced by the first pass.
type remap struct {
	oldID   uint
	oldUUID string
	newID   uint
	newUUID string
	newType string
}

// Import starts expanding a package in the background. The call returns once
// the package is marked {expanded, importing}; progress is observable by
// polling the package metadata or through the package event queue. A second
// import of an already expanded package is rejected.
func (s *ImportService) Import(ctx context.Context, creator, packageID string) error {
	pkg, err := s.store.GetNodeByUUID(ctx, creator, packageID)
	if err != nil {
		return translate(err)
	}

	if pkg.Type != model.NodeTypeZip && pkg.Type != model.NodeTypePackage {
		return ErrNotAPackage
	}

	state := model.ParsePackageState(pkg.Metadata)
	if state.Importing {
		return ErrPackageImporting
	}
	if state.Expanded {
		return ErrPackageExpanded
	}

	// marked before any work so a crash mid-import still leaves enough
	// state for a compensating undo
	if err := s.setState(ctx, pkg, model.PackageState{Expanded: true, Importing: true}); err != nil {
		return translate(err)
	}

	s.publish(ctx, pkg, queue.PackageImportStarted, nil)

	go func() {
		// detached from the caller; import runs to completion or failure
		bg := context.Background()
		err := s.expand(bg, creator, pkg)
		if err != nil {
			logrus.Errorf("import of package %s failed: %v", pkg.UUID, err)
			_ = s.setState(bg, pkg, model.PackageState{Expanded: true})
			s.publish(bg, pkg, queue.PackageImportFailed, err)
			return
		}

		_ = s.setState(bg, pkg, model.PackageState{Expanded: true, Success: true})
		s.publish(bg, pkg, queue.PackageImportSucceeded, nil)
	}()

	return nil
}

// expand runs the whole reconciliation synchronously.
func (s *ImportService) expand(ctx context.Context, creator string, pkg *model.Node) error {
	arc, err := archive.Open(pkg.Path)
	if err != nil {
		return translate(err)
	}

	manifest, err := arc.Manifest()
	if err != nil {
		return translate(err)
	}

	profile, err := arc.Profile()
	if err != nil {
		return translate(err)
	}

	if stamp, err := arc.Stamp(); err != nil {
		return translate(err)
	} else {
		logrus.Infof("importing package %s, archive version %s, %d records", pkg.UUID, stamp.Version, len(manifest.Nodes))
	}

	local, err := s.localIdentity(ctx, creator, profile)
	if err != nil {
		return err
	}

	// first pass: create every record with fresh identifiers, leaving
	// association targets pointing at the manifest's old identifiers
	maps := make([]remap, 0, len(manifest.Nodes))
	var importedUser *model.Node
	for i := range manifest.Nodes {
		rec := &manifest.Nodes[i]

		node, err := s.importNode(ctx, creator, pkg, arc, rec)
		if err != nil {
			return err
		}

		if rec.Type == model.NodeTypeUser {
			importedUser = node
		}

		maps = append(maps, remap{
			oldID:   rec.ID,
			oldUUID: rec.UUID,
			newID:   node.ID,
			newUUID: node.UUID,
			newType: node.Type,
		})
	}

	// second pass: resolve the forward references left by the first pass
	for _, m := range maps {
		if err := s.store.RetargetImportedAssociations(ctx, pkg.UUID, m.oldID, m.oldUUID, m.newID, m.newUUID, m.newType); err != nil {
			return translate(err)
		}
	}

	// content embeds literal uuid strings independent of the association
	// table; rewrite them once the mapping table is complete. References
	// to the foreign identity point at the local one.
	content := make([]remap, len(maps))
	copy(content, maps)
	if importedUser != nil {
		for i := range content {
			if content[i].newID == importedUser.ID {
				content[i].newUUID = local.UUID
			}
		}
	}
	if err := s.rewriteContent(ctx, creator, pkg, content); err != nil {
		return err
	}

	// merge the foreign identity into the importing one
	if importedUser != nil {
		if err := s.store.RedirectNodeAssociations(ctx, creator, importedUser, local); err != nil {
			return translate(err)
		}
		if err := s.store.DeleteNode(ctx, importedUser.ID); err != nil {
			return translate(err)
		}
	}

	return s.refreshCollectionPreviews(ctx, creator, pkg)
}

// importNode creates the local row for one manifest record, placing its
// attachment when the archive carries one, and inserts the record's
// embedded associations anchored at the new node but still targeting the
// old identifiers.
func (s *ImportService) importNode(ctx context.Context, creator string, pkg *model.Node, arc *archive.Archive, rec *archive.ManifestNode) (*model.Node, error) {
	node := &model.Node{
		UUID:        uuid.NewString(),
		Creator:     creator,
		Type:        rec.Type,
		IsFile:      rec.IsFile,
		Name:        rec.Name,
		Preview:     rec.Preview,
		Comment:     rec.Comment,
		Content:     rec.Content,
		Metadata:    rec.Metadata,
		Color:       rec.Color,
		Pinned:      rec.Pinned,
		Impressions: rec.Impressions,
		Views:       rec.Views,
		ViewedAt:    rec.ViewedAt,
		ImportID:    pkg.UUID,
		// import does not bump modification time
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	// identity attachments are never placed: the imported user row is merged
	// into the local identity, which would leave the file unowned
	if rec.IsFile && rec.Type != model.NodeTypeUser {
		entry := rec.UUID + filepath.Ext(rec.Path)
		data, ok := arc.Entry(entry)
		if !ok {
			// a missing attachment degrades the node, it never aborts
			// the whole import
			logrus.Warnf("archive entry %s is missing, importing node without attachment", entry)
		} else {
			name := filepath.Base(rec.Path)
			if name == "." || name == string(filepath.Separator) {
				name = entry
			}

			dst, err := s.locator.ImportPath(creator, rec.Type, name)
			if err != nil {
				return nil, translate(err)
			}
			if err := os.WriteFile(dst, data, 0o644); err != nil {
				return nil, translate(err)
			}
			node.Path = dst
		}
	}

	if err := s.store.CreateNode(ctx, node); err != nil {
		return nil, translate(err)
	}

	for _, assoc := range rec.Associations {
		row := &model.Association{
			NodeID:         node.ID,
			NodeUUID:       node.UUID,
			NodeType:       node.Type,
			LinkedNode:     assoc.LinkedNode,
			LinkedNodeUUID: assoc.LinkedNodeUUID,
			LinkedNodeType: assoc.LinkedNodeType,
			LinkStrength:   assoc.LinkStrength,
			LinkStart:      assoc.LinkStart,
			Creator:        creator,
			ImportID:       pkg.UUID,
			CreatedAt:      assoc.CreatedAt,
			UpdatedAt:      assoc.UpdatedAt,
		}
		if err := s.store.CreateAssociation(ctx, row); err != nil {
			return nil, translate(err)
		}
	}

	return node, nil
}

// localIdentity returns the importing owner's identity node, creating one
// from the archive profile when the installation has none yet.
func (s *ImportService) localIdentity(ctx context.Context, creator string, profile *archive.Profile) (*model.Node, error) {
	user, err := s.store.GetUserNode(ctx, creator)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNodeNotFound) {
		return nil, translate(err)
	}

	now := time.Now()
	user = &model.Node{
		UUID:      uuid.NewString(),
		Creator:   creator,
		Type:      model.NodeTypeUser,
		Name:      profile.Name,
		Preview:   profile.Preview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNode(ctx, user); err != nil {
		return nil, translate(err)
	}

	return user, nil
}

// rewriteContent substitutes every literal occurrence of an old uuid inside
// the imported nodes' content with its new uuid.
func (s *ImportService) rewriteContent(ctx context.Context, creator string, pkg *model.Node, maps []remap) error {
	nodes, err := s.store.ListNodesByImportID(ctx, creator, pkg.UUID)
	if err != nil {
		return translate(err)
	}

	for _, node := range nodes {
		if node.Content == "" {
			continue
		}

		content := node.Content
		for _, m := range maps {
			content = strings.ReplaceAll(content, m.oldUUID, m.newUUID)
		}
		if content == node.Content {
			continue
		}

		if err := s.store.UpdateNodeColumns(ctx, node.ID, map[string]any{"content": content}); err != nil {
			return translate(err)
		}
	}

	return nil
}

// refreshCollectionPreviews materializes a compact preview payload for each
// imported collection from its strongest associations.
func (s *ImportService) refreshCollectionPreviews(ctx context.Context, creator string, pkg *model.Node) error {
	nodes, err := s.store.ListNodesByImportID(ctx, creator, pkg.UUID)
	if err != nil {
		return translate(err)
	}

	for _, node := range nodes {
		if node.Type != model.NodeTypeCollection {
			continue
		}

		assocs, err := s.store.ListNodeAssociations(ctx, creator, node.ID, collectionPreviewSize)
		if err != nil {
			return translate(err)
		}

		items := make([]model.PreviewItem, 0, len(assocs))
		for _, assoc := range assocs {
			otherID := assoc.LinkedNode
			if assoc.LinkedNode == node.ID {
				otherID = assoc.NodeID
			}

			other, err := s.store.GetNodeByID(ctx, otherID)
			if err != nil {
				continue
			}
			items = append(items, model.PreviewItem{Type: other.Type, Preview: other.Preview})
		}

		err = s.store.UpdateNodeColumns(ctx, node.ID, map[string]any{
			"preview": model.EncodePreviewItems(items),
		})
		if err != nil {
			return translate(err)
		}
	}

	return nil
}

// Undo compensates an import: it deletes every file, node and association
// tagged with the package's uuid and clears the package metadata. It is
// idempotent; with nothing left to delete it is a no-op. Only a package
// whose import is still in flight cannot be undone.
func (s *ImportService) Undo(ctx context.Context, creator, packageID string) error {
	pkg, err := s.store.GetNodeByUUID(ctx, creator, packageID)
	if err != nil {
		return translate(err)
	}

	if model.ParsePackageState(pkg.Metadata).Importing {
		return ErrPackageImporting
	}

	nodes, err := s.store.ListNodesByImportID(ctx, creator, pkg.UUID)
	if err != nil {
		return translate(err)
	}

	for _, node := range nodes {
		if !node.IsFile || node.Path == "" || !s.locator.Inside(node.Path) {
			continue
		}

		if err := os.Remove(node.Path); err != nil && !os.IsNotExist(err) {
			logrus.Errorf("failed to remove attachment %s: %v", node.Path, err)
		}
		s.locator.Cleanup(node.Path)
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteAssociationsByImportID(ctx, creator, pkg.UUID); err != nil {
			return err
		}
		if err := tx.DeleteNodesByImportID(ctx, creator, pkg.UUID); err != nil {
			return err
		}

		return tx.UpdateNodeColumns(ctx, pkg.ID, map[string]any{"metadata": ""})
	})
	if err != nil {
		return translate(err)
	}

	s.publish(ctx, pkg, queue.PackageUndone, nil)
	return nil
}

func (s *ImportService) setState(ctx context.Context, pkg *model.Node, state model.PackageState) error {
	return s.store.UpdateNodeColumns(ctx, pkg.ID, map[string]any{"metadata": state.Encode()})
}

func (s *ImportService) publish(ctx context.Context, pkg *model.Node, status string, cause error) {
	event := &queue.PackageEvent{
		PackageUUID: pkg.UUID,
		Creator:     pkg.Creator,
		Status:      status,
		Time:        time.Now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	if err := s.queue.PublishPackageEvent(ctx, event); err != nil {
		logrus.Errorf("failed to publish package event: %v", err)
	}
}
