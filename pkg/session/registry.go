// Package session provides the session-keyed counter registry the delegation
// loop guard builds on.
package session

import "sync"

// Registry maps opaque session identifiers to consecutive-call counters.
// Entries are created implicitly on first use and live until process exit;
// there is no eviction because at most a handful of pipeline runs are active
// at once. All operations are serialized by a single mutex.
//
// Registries are wired in by whoever assembles the pipeline. Tests create a
// fresh one per case instead of resetting shared state.
type Registry struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{counts: make(map[string]int)}
}

// GetCount returns the current counter for the session, 0 if unseen.
func (r *Registry) GetCount(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[sessionID]
}

// Increment atomically increments the session counter and returns the new
// value. The first call for a session returns 1.
func (r *Registry) Increment(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[sessionID]++
	return r.counts[sessionID]
}

// Reset atomically sets the session counter to 0, creating the entry if
// absent.
func (r *Registry) Reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[sessionID] = 0
}

// Sessions returns the ids of all sessions seen so far, in no particular
// order. Used by operator tooling to summarize a run.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.counts))
	for id := range r.counts {
		out = append(out, id)
	}
	return out
}
