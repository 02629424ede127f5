package scheduler

import (
	"context"
	"sync"
)

// RunGuard hands out one run slot per task name.
type RunGuard interface {
	// TryAcquire returns ok=false while a previous run of task holds the slot.
	TryAcquire(ctx context.Context, task string) (release func(context.Context) error, ok bool, err error)
}

// MemoryGuard is an in-process RunGuard.
type MemoryGuard struct {
	mu      sync.Mutex
	running map[string]bool
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{running: make(map[string]bool)}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, task string) (func(context.Context) error, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[task] {
		return nil, false, nil
	}
	g.running[task] = true
	var once sync.Once
	release := func(context.Context) error {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, task)
			g.mu.Unlock()
		})
		return nil
	}
	return release, true, nil
}

// Running reports whether task currently holds its slot.
func (g *MemoryGuard) Running(task string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[task]
}
