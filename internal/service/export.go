package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/recall/internal/archive"
	"github.com/emrgen/recall/internal/compress"
	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/queue"
	"github.com/emrgen/recall/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewExportService creates a new ExportService.
func NewExportService(store store.Store, locator *filestore.Locator, queue queue.PackageQueue) *ExportService {
	return &ExportService{
		store:   store,
		locator: locator,
		queue:   queue,
	}
}

// ExportService serializes a subgraph plus its attachment files into a
// portable archive.
type ExportService struct {
	store   store.Store
	locator *filestore.Locator
	queue   queue.PackageQueue
}

// Export writes an archive of the owner's graph to archivePath and records
// the artifact as a package node. With an anchor it exports the anchor plus
// its direct neighborhood; with an empty anchor it exports everything the
// owner created except package artifacts. Associations leaving the scope
// are dropped so the archive never carries a dangling edge.
//
// The archive is written to a .partial file first and renamed only after
// the stream reports completion; the package node is created after the
// rename. A failed export leaves the .partial behind for the janitor.
func (s *ExportService) Export(ctx context.Context, creator, anchorID, archivePath string) (*model.Node, error) {
	nodes, err := s.scope(ctx, creator, anchorID)
	if err != nil {
		return nil, err
	}

	ids := mapset.NewSet[uint]()
	for _, node := range nodes {
		ids.Add(node.ID)
	}

	manifest := &archive.Manifest{}
	for _, node := range nodes {
		entry := toManifestNode(node)

		anchored, err := s.store.ListAnchoredAssociations(ctx, creator, node.ID)
		if err != nil {
			return nil, translate(err)
		}
		for _, assoc := range anchored {
			// associations that would dangle after export are dropped
			if !ids.Contains(assoc.LinkedNode) {
				continue
			}
			entry.Associations = append(entry.Associations, toManifestAssociation(assoc))
		}

		manifest.Nodes = append(manifest.Nodes, entry)
	}

	if err := s.writeArchive(ctx, creator, archivePath, manifest, nodes); err != nil {
		return nil, err
	}

	now := time.Now()
	pkg := &model.Node{
		UUID:      uuid.NewString(),
		Creator:   creator,
		Type:      model.NodeTypeZip,
		IsFile:    true,
		Name:      filepath.Base(archivePath),
		Path:      archivePath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNode(ctx, pkg); err != nil {
		return nil, translate(err)
	}

	if err := s.queue.PublishPackageEvent(ctx, &queue.PackageEvent{
		PackageUUID: pkg.UUID,
		Creator:     creator,
		Status:      queue.PackageExported,
		Time:        now,
	}); err != nil {
		logrus.Errorf("failed to publish export event: %v", err)
	}

	return pkg, nil
}

// scope resolves the node set of the export.
func (s *ExportService) scope(ctx context.Context, creator, anchorID string) ([]*model.Node, error) {
	if anchorID == "" {
		all, err := s.store.ListNodesByCreator(ctx, creator)
		if err != nil {
			return nil, translate(err)
		}

		nodes := make([]*model.Node, 0, len(all))
		for _, node := range all {
			// package artifacts are local bookkeeping, not content
			if node.Type == model.NodeTypePackage || node.Type == model.NodeTypeZip {
				continue
			}
			nodes = append(nodes, node)
		}

		return nodes, nil
	}

	anchor, err := s.store.GetNodeByUUID(ctx, creator, anchorID)
	if err != nil {
		return nil, translate(err)
	}

	assocs, err := s.store.ListNodeAssociations(ctx, creator, anchor.ID, 0)
	if err != nil {
		return nil, translate(err)
	}

	ids := mapset.NewSet[uint]()
	for _, assoc := range assocs {
		ids.Add(assoc.NodeID)
		ids.Add(assoc.LinkedNode)
	}
	ids.Remove(anchor.ID)

	nodes := []*model.Node{anchor}
	if ids.Cardinality() > 0 {
		neighbors, err := s.store.ListNodesByIDs(ctx, creator, ids.ToSlice())
		if err != nil {
			return nil, translate(err)
		}
		nodes = append(nodes, neighbors...)
	}

	return nodes, nil
}

func (s *ExportService) writeArchive(ctx context.Context, creator, archivePath string, manifest *archive.Manifest, nodes []*model.Node) error {
	partial := archivePath + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return translate(err)
	}
	defer f.Close()

	w := archive.NewWriter(f, compress.ByPath(archivePath))

	// attachments go in named by uuid so the importer can locate the
	// bytes by identifier alone
	for _, node := range nodes {
		if !node.IsFile || node.Path == "" {
			continue
		}

		src, err := os.Open(node.Path)
		if err != nil {
			logrus.Warnf("attachment %s is unreadable, exporting node %s without it: %v", node.Path, node.UUID, err)
			continue
		}

		info, err := src.Stat()
		if err == nil {
			err = w.AddFile(node.UUID+filepath.Ext(node.Path), info.Size(), src)
		}
		src.Close()
		if err != nil {
			return translate(err)
		}
	}

	profile, err := s.profile(ctx, creator, w)
	if err != nil {
		return err
	}

	if err := w.AddJSON(archive.NodesEntry, manifest); err != nil {
		return translate(err)
	}
	if err := w.AddJSON(archive.ProfileEntry, profile); err != nil {
		return translate(err)
	}
	if err := w.AddJSON(archive.StampEntry, &archive.Stamp{Version: archive.Version}); err != nil {
		return translate(err)
	}

	if err := w.Close(); err != nil {
		return translate(err)
	}
	if err := f.Close(); err != nil {
		return translate(err)
	}

	return translate(os.Rename(partial, archivePath))
}

// profile collects the owning identity's profile entry and streams its
// avatar asset into the archive when one is stored locally.
func (s *ExportService) profile(ctx context.Context, creator string, w *archive.Writer) (*archive.Profile, error) {
	user, err := s.store.GetUserNode(ctx, creator)
	if err != nil {
		// an installation without an identity node exports an empty profile
		return &archive.Profile{Username: creator}, nil
	}

	profile := &archive.Profile{
		Username: creator,
		Name:     user.Name,
		Preview:  user.Preview,
	}

	if user.IsFile && user.Path != "" && s.locator.Inside(user.Path) {
		src, err := os.Open(user.Path)
		if err == nil {
			info, statErr := src.Stat()
			if statErr == nil {
				entry := creator + "-avatar" + filepath.Ext(user.Path)
				if err := w.AddFile(entry, info.Size(), src); err != nil {
					src.Close()
					return nil, translate(err)
				}
				profile.Avatar = entry
			}
			src.Close()
		}
	}

	return profile, nil
}

func toManifestNode(node *model.Node) archive.ManifestNode {
	return archive.ManifestNode{
		ID:          node.ID,
		UUID:        node.UUID,
		Type:        node.Type,
		IsFile:      node.IsFile,
		Name:        node.Name,
		Preview:     node.Preview,
		Comment:     node.Comment,
		Content:     node.Content,
		Path:        node.Path,
		Metadata:    node.Metadata,
		Color:       node.Color,
		Pinned:      node.Pinned,
		Impressions: node.Impressions,
		Views:       node.Views,
		ViewedAt:    node.ViewedAt,
		CreatedAt:   node.CreatedAt,
		UpdatedAt:   node.UpdatedAt,
	}
}

func toManifestAssociation(assoc *model.Association) archive.ManifestAssociation {
	return archive.ManifestAssociation{
		NodeID:         assoc.NodeID,
		NodeUUID:       assoc.NodeUUID,
		NodeType:       assoc.NodeType,
		LinkedNode:     assoc.LinkedNode,
		LinkedNodeUUID: assoc.LinkedNodeUUID,
		LinkedNodeType: assoc.LinkedNodeType,
		LinkStrength:   assoc.LinkStrength,
		LinkStart:      assoc.LinkStart,
		CreatedAt:      assoc.CreatedAt,
		UpdatedAt:      assoc.UpdatedAt,
	}
}
