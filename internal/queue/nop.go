package queue

import "context"

var _ PackageQueue = (*Nop)(nil)

// Nop drops every event. Used when no broker is configured.
type Nop struct {
}

func NewNop() Nop {
	return Nop{}
}

func (n Nop) PublishPackageEvent(ctx context.Context, event *PackageEvent) error {
	return nil
}
