package app

import (
	"context"
	"sync"

	"pagebuilder/internal/service"
)

// fanout forwards session events to emitters that may be attached after the
// session was built; the MCP server needs the session before it can listen.
type fanout struct {
	mu      sync.RWMutex
	targets service.MultiEmitter
}

func (f *fanout) Add(e service.EventEmitter) {
	f.mu.Lock()
	f.targets = append(f.targets, e)
	f.mu.Unlock()
}

func (f *fanout) Emit(ctx context.Context, event string, data any) {
	f.mu.RLock()
	targets := f.targets
	f.mu.RUnlock()
	targets.Emit(ctx, event, data)
}
