package model

import "time"

// Direction is the association direction at the API boundary. The storage
// row encodes it through the LinkStart column: a NULL LinkStart means the
// link originates at the anchor only, a set value means both endpoints
// originate it.
type Direction int

const (
	// DirectionForward is a unidirectional link, anchor -> target.
	DirectionForward Direction = iota
	// DirectionBoth is a bidirectional link.
	DirectionBoth
)

// Association is a typed edge between two nodes. The row is asymmetric in
// storage (anchor vs target) and at most one row exists for any unordered
// node pair owned by the same creator.
type Association struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	NodeID         uint   `gorm:"not null;index" json:"-"`
	NodeUUID       string `gorm:"not null" json:"nodeUUID"`
	NodeType       string `json:"nodeType"`
	LinkedNode     uint   `gorm:"not null;index" json:"-"`
	LinkedNodeUUID string `gorm:"not null" json:"linkedNodeUUID"`
	LinkedNodeType string `json:"linkedNodeType"`
	LinkStrength   int64  `gorm:"not null;default:1" json:"linkStrength"`
	// LinkStart is the legacy tri-state direction marker, kept at the
	// storage edge only. Use Direction/SetDirection.
	LinkStart *int64    `json:"linkStart,omitempty"`
	Creator   string    `gorm:"not null;index" json:"creator"`
	ImportID  string    `gorm:"index" json:"importId"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (a *Association) TableName() string {
	return "associations"
}

func (a *Association) Direction() Direction {
	if a.LinkStart != nil {
		return DirectionBoth
	}
	return DirectionForward
}

func (a *Association) SetDirection(d Direction) {
	if d == DirectionBoth {
		start := int64(1)
		a.LinkStart = &start
		return
	}
	a.LinkStart = nil
}

// Swap exchanges the anchor and target endpoints in place.
func (a *Association) Swap() {
	a.NodeID, a.LinkedNode = a.LinkedNode, a.NodeID
	a.NodeUUID, a.LinkedNodeUUID = a.LinkedNodeUUID, a.NodeUUID
	a.NodeType, a.LinkedNodeType = a.LinkedNodeType, a.NodeType
}
