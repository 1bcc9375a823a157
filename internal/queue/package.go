package queue

import (
	"context"
	"time"
)

// PackageEventsTopic carries package lifecycle events. Import runs in the
// background; these events are the progress signal besides polling the
// package node's metadata.
var PackageEventsTopic = "recall.package.events"

const (
	PackageImportStarted   = "import:started"
	PackageImportSucceeded = "import:succeeded"
	PackageImportFailed    = "import:failed"
	PackageUndone          = "undone"
	PackageExported        = "exported"
)

// PackageEvent is one lifecycle transition of a package node.
type PackageEvent struct {
	PackageUUID string    `json:"packageUUID"`
	Creator     string    `json:"creator"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Time        time.Time `json:"time"`
}

// PackageQueue publishes package lifecycle events.
type PackageQueue interface {
	// PublishPackageEvent appends a lifecycle event to the queue.
	PublishPackageEvent(ctx context.Context, event *PackageEvent) error
}
