package component

import (
	"context"
	"time"
)

// LifecycleComponent is a Discoverable with a managed lifecycle:
//   - Initialize() sets up state and does no I/O
//   - Start(ctx) subscribes and spawns goroutines bound to ctx
//   - Stop(timeout) drains and releases everything Start acquired
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// AsLifecycleComponent casts a component to LifecycleComponent
func AsLifecycleComponent(comp Discoverable) (LifecycleComponent, bool) {
	lc, ok := comp.(LifecycleComponent)
	return lc, ok
}
