package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningGuard

// runningGuard lets at most one run of each named task (e.g. "autosave")
// proceed at a time and lets shutdown wait for the ones in flight.
type runningGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks name as running. It returns false if a run is already in
// progress.
func (g *runningGuard) TryLock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, busy := g.running[name]; busy {
		return false
	}
	g.running[name] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock ends a run started by a successful TryLock.
func (g *runningGuard) Unlock(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[name]; !busy {
		return
	}
	delete(g.running, name)
	g.wg.Done()
}

// WaitAll blocks until nothing is running or ctx is done.
func (g *runningGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
