package view

import (
	"sync"
	"time"
)

type entry struct {
	d        *Dashboard
	lastSeen time.Time
}

// Registry keeps one Dashboard per browser session and drops idle ones.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	idle    time.Duration
	now     func() time.Time
}

func NewRegistry(idle time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		idle:    idle,
		now:     time.Now,
	}
}

// Get returns the dashboard for id, creating it with newFn on first use.
func (r *Registry) Get(id string, newFn func() *Dashboard) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[id]; ok {
		e.lastSeen = now
		return e.d
	}
	d := newFn()
	r.entries[id] = &entry{d: d, lastSeen: now}
	return d
}

// Drop forgets the dashboard of id, e.g. on logout.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Sweep removes dashboards idle for longer than the configured duration and
// returns how many were removed.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps periodically until stop is closed.
func (r *Registry) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-stop:
				return
			}
		}
	}()
}

// Len reports the number of live dashboards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
