// Package frontier implements C5: the FIFO work queue and its companion
// visited set, generalised from the teacher's inlined
// Crawler.seen/seenMu/markSeen into a standalone, explicitly-injected
// component with real termination semantics.
package frontier

import (
	"context"
	"sync"

	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/normalize"
)

// Frontier is a bounded-concurrency-safe FIFO of Tasks with a visited set
// keyed on (method, canonical_dedup_url). Push is idempotent. Pop blocks
// until work is available, returning false once the queue is empty and no
// worker still holds an in-flight task (the termination signal), or once
// ctx is cancelled.
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	ctx      context.Context
	norm     *normalize.Normalizer
	scope    *normalize.ScopeChecker
	maxDepth int

	queue    []model.Task
	visited  map[string]struct{}
	inFlight int
}

// New creates a Frontier bound to ctx. The Frontier's lifecycle is created
// by the Controller at scan start and dropped at scan end; it must not be
// reused across runs.
func New(ctx context.Context, norm *normalize.Normalizer, scope *normalize.ScopeChecker, maxDepth int) *Frontier {
	f := &Frontier{
		ctx:      ctx,
		norm:     norm,
		scope:    scope,
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
	}
	f.cond = sync.NewCond(&f.mu)

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	}()

	return f
}

// Push canonicalises and scope-checks t, then enqueues it if its
// (method, url) key has not been seen. Returns true iff it was newly
// enqueued. Concurrent pushes of the same key yield exactly one enqueue.
func (f *Frontier) Push(t model.Task) bool {
	if t.Depth > f.maxDepth {
		return false
	}
	canon, err := f.norm.Canonicalize(t.URL)
	if err != nil {
		return false
	}
	if t.Target != nil && !f.scope.InScope(t.Target, canon) {
		return false
	}
	key, err := f.norm.DedupKey(t.Method, canon)
	if err != nil {
		return false
	}
	t.URL = canon

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[key]; seen {
		return false
	}
	f.visited[key] = struct{}{}
	f.queue = append(f.queue, t)
	f.cond.Broadcast()
	return true
}

// Pop removes and returns the head task, marking it in-flight. It blocks
// while the queue is empty and in-flight workers still exist (they may yet
// push more work); it returns (zero, false) once the frontier is
// exhausted or the run is cancelled. Callers MUST call Done exactly once
// for every Task successfully popped.
func (f *Frontier) Pop() (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctx.Err() != nil {
		return model.Task{}, false
	}
	for len(f.queue) == 0 {
		if f.inFlight == 0 || f.ctx.Err() != nil {
			return model.Task{}, false
		}
		f.cond.Wait()
	}

	t := f.queue[0]
	f.queue = f.queue[1:]
	f.inFlight++
	return t, true
}

// Done marks an in-flight task as finished, potentially unblocking Pop
// callers waiting on the termination condition.
func (f *Frontier) Done() {
	f.mu.Lock()
	f.inFlight--
	if f.inFlight <= 0 {
		f.cond.Broadcast()
	}
	f.mu.Unlock()
}

// Stats returns a point-in-time snapshot for instrumentation.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{Queued: len(f.queue), Visited: len(f.visited), InFlight: f.inFlight}
}
