package pipeline

import (
	"context"
	"sync"
)

// Runs issues monotonically increasing run ids per session. Beginning a run
// cancels the previous run of the same session.
type Runs struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*session
}

type session struct {
	current uint64
	cancel  context.CancelFunc
}

// NewRuns creates an empty tracker.
func NewRuns() *Runs {
	return &Runs{sessions: make(map[string]*session)}
}

// Begin starts a run for key and returns its id and a context that is
// cancelled when a newer run begins for the same key. The caller must call
// Finish with the returned id.
func (r *Runs) Begin(ctx context.Context, key string) (uint64, context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	s, ok := r.sessions[key]
	if !ok {
		s = &session{}
		r.sessions[key] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.current, s.cancel = id, cancel
	return id, runCtx
}

// Finish ends run id for key and reports whether it was still the latest.
func (r *Runs) Finish(key string, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok || s.current != id {
		return false
	}
	s.cancel()
	delete(r.sessions, key)
	return true
}

// Current returns the latest run id for key, or zero when none is active.
func (r *Runs) Current(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s.current
	}
	return 0
}
