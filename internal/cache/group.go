package cache

import (
	"maps"
	"slices"
	"sync"
)

// Maintainable is anything that can drop stale entries or be cleared.
type Maintainable interface {
	Sweep() int
	Purge()
}

// Group fans maintenance calls out to every registered cache layer.
type Group struct {
	mu      sync.RWMutex
	members map[string]Maintainable
}

func NewGroup() *Group {
	return &Group{members: map[string]Maintainable{}}
}

// Register adds or replaces a named member. Nil members are ignored.
func (g *Group) Register(name string, member Maintainable) {
	if member == nil {
		return
	}
	g.mu.Lock()
	g.members[name] = member
	g.mu.Unlock()
}

// Names returns the registered member names, sorted.
func (g *Group) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.members))
}

// Sweep sweeps every member and reports the per-member counts.
func (g *Group) Sweep() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]int, len(g.members))
	for name, member := range g.members {
		out[name] = member.Sweep()
	}
	return out
}

func (g *Group) Purge() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, member := range g.members {
		member.Purge()
	}
}
