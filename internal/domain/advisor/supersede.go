package advisor

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tracker enforces last-request-wins per session: beginning a sweep cancels
// the one already in flight for the same session.
type Tracker struct {
	mu         sync.Mutex
	active     map[string]*flight
	seq        uint64
	superseded atomic.Int64
}

type flight struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]*flight)}
}

// Begin registers a sweep for session. The returned context is cancelled
// with cause ErrSuperseded when a newer sweep for the same session begins.
// done must be called when the sweep ends. An empty session is never
// superseded.
func (t *Tracker) Begin(ctx context.Context, session string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if session == "" {
		return ctx, func() { cancel(nil) }
	}

	t.mu.Lock()
	if prev, ok := t.active[session]; ok {
		prev.cancel(ErrSuperseded)
		t.superseded.Add(1)
	}
	t.seq++
	id := t.seq
	t.active[session] = &flight{id: id, cancel: cancel}
	t.mu.Unlock()

	return ctx, func() {
		t.mu.Lock()
		if cur, ok := t.active[session]; ok && cur.id == id {
			delete(t.active, session)
		}
		t.mu.Unlock()
		cancel(nil)
	}
}

// Active returns the number of sessions with a sweep in flight.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Superseded returns how many sweeps have been superseded so far.
func (t *Tracker) Superseded() int64 {
	return t.superseded.Load()
}
