package archive

import (
	"time"
)

// Fixed logical entry names inside an archive. Every archive carries exactly
// these three manifest entries next to the attachment file entries.
const (
	NodesEntry   = "nodes.json"
	ProfileEntry = "profile.json"
	StampEntry   = "meta.json"
)

// Version is the archive format version stamped into every archive.
const Version = "1"

// Manifest is the node+association manifest of an archive. Associations are
// nested under their anchor node; only associations whose both endpoints are
// part of the export scope appear at all.
type Manifest struct {
	Nodes []ManifestNode `json:"nodes"`
}

// ManifestNode carries the exported identifiers verbatim. The importing
// store never reuses them; they only serve as remap keys.
type ManifestNode struct {
	ID           uint                  `json:"id"`
	UUID         string                `json:"uuid"`
	Type         string                `json:"type"`
	IsFile       bool                  `json:"isFile"`
	Name         string                `json:"name"`
	Preview      string                `json:"preview"`
	Comment      string                `json:"comment"`
	Content      string                `json:"content"`
	Path         string                `json:"path"`
	Metadata     string                `json:"metadata"`
	Color        string                `json:"color"`
	Pinned       bool                  `json:"pinned"`
	Impressions  int64                 `json:"impressions"`
	Views        int64                 `json:"views"`
	ViewedAt     *time.Time            `json:"viewedAt,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Associations []ManifestAssociation `json:"associations,omitempty"`
}

// ManifestAssociation is an exported association anchored at its enclosing
// manifest node.
type ManifestAssociation struct {
	NodeID         uint       `json:"nodeId"`
	NodeUUID       string     `json:"nodeUUID"`
	NodeType       string     `json:"nodeType"`
	LinkedNode     uint       `json:"linkedNode"`
	LinkedNodeUUID string     `json:"linkedNodeUUID"`
	LinkedNodeType string     `json:"linkedNodeType"`
	LinkStrength   int64      `json:"linkStrength"`
	LinkStart      *int64     `json:"linkStart,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Profile is the identity-profile manifest entry.
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Preview  string `json:"preview"`
	Avatar   string `json:"avatar,omitempty"`
	Header   string `json:"header,omitempty"`
}

// Stamp is the archive format version entry.
type Stamp struct {
	Version string `json:"version"`
}
