package model

import (
	"encoding/json"
	"time"
)

// Node types with special handling inside the store. The type set is open;
// anything else is treated as plain content by the core.
const (
	NodeTypeText       = "text"
	NodeTypeImage      = "image"
	NodeTypeAudio      = "audio"
	NodeTypeFile       = "file"
	NodeTypeZip        = "zip"
	NodeTypePackage    = "package"
	NodeTypeURL        = "url"
	NodeTypeCollection = "collection"
	NodeTypeUser       = "user"
)

// Node is a vertex in the personal content graph. The numeric ID is local to
// one store instance and never leaves it; UUID is the only identifier that
// survives export/import.
type Node struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	UUID        string `gorm:"not null;uniqueIndex:idx_nodes_creator_uuid" json:"uuid"`
	Creator     string `gorm:"not null;uniqueIndex:idx_nodes_creator_uuid;index" json:"creator"`
	Type        string `gorm:"not null;index" json:"type"`
	IsFile      bool   `json:"isFile"`
	Name        string `json:"name"`
	Preview     string `json:"preview"`
	Comment     string `json:"comment"`
	Content     string `json:"content"`
	Path        string `json:"path"`
	Metadata    string `json:"metadata"`
	Color       string `json:"color"`
	Pinned      bool   `json:"pinned"`
	Impressions int64  `json:"impressions"`
	Views       int64  `json:"views"`
	// timestamps are managed by the services so that imported records keep
	// their original times
	ViewedAt  *time.Time `json:"viewedAt,omitempty"`
	ImportID  string     `gorm:"index" json:"importId"`
	CreatedAt time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (n *Node) TableName() string {
	return "nodes"
}

// PackageState tracks the import lifecycle of a package node inside its
// metadata column.
//
// unexpanded -> {expanded, importing} -> {expanded, importing:false, success:true|false}
type PackageState struct {
	Expanded  bool `json:"expanded"`
	Importing bool `json:"importing"`
	Success   bool `json:"success"`
}

// ParsePackageState decodes the lifecycle flags from a metadata blob. An
// empty or non-object blob decodes to the zero (unexpanded) state.
func ParsePackageState(metadata string) PackageState {
	var state PackageState
	if metadata == "" {
		return state
	}
	_ = json.Unmarshal([]byte(metadata), &state)
	return state
}

func (s PackageState) Encode() string {
	data, _ := json.Marshal(s)
	return string(data)
}

// PreviewItem is one entry of a collection node's materialized preview.
type PreviewItem struct {
	Type    string `json:"type"`
	Preview string `json:"preview"`
}

func EncodePreviewItems(items []PreviewItem) string {
	data, _ := json.Marshal(items)
	return string(data)
}
