// Package debounce delays keyed tasks until input goes quiet.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the quiet period used by the client search box.
const DefaultDelay = 300 * time.Millisecond

var (
	// ErrSuperseded is returned to a Search caller whose query was replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrStopped is returned once the Debouncer has been stopped.
	ErrStopped = errors.New("debouncer stopped")
)

type task struct {
	id     uint64
	timer  *time.Timer
	cancel context.CancelFunc
	drop   func() // called when the task is replaced before it starts
}

// Debouncer runs at most one pending task per key.
// INVARIANT: triggering a key cancels the key's previous task, whether pending or running.
type Debouncer struct {
	delay time.Duration
	base  context.Context
	stop  context.CancelFunc

	mu      sync.Mutex
	nextID  uint64
	tasks   map[string]*task
	stopped bool
}

// New creates a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	base, stop := context.WithCancel(context.Background())
	return &Debouncer{delay: delay, base: base, stop: stop, tasks: make(map[string]*task)}
}

// Trigger schedules fn for key after the quiet period, replacing any earlier task for key.
// fn's context is cancelled if the task is replaced while it runs.
func (d *Debouncer) Trigger(key string, fn func(ctx context.Context)) {
	d.schedule(key, fn, nil)
}

func (d *Debouncer) schedule(key string, fn func(ctx context.Context), drop func()) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return 0, false
	}
	if prev, ok := d.tasks[key]; ok {
		d.cancelLocked(prev)
	}

	d.nextID++
	ctx, cancel := context.WithCancel(d.base)
	t := &task{id: d.nextID, cancel: cancel, drop: drop}
	t.timer = time.AfterFunc(d.delay, func() {
		defer cancel()
		fn(ctx)
		d.mu.Lock()
		if cur, ok := d.tasks[key]; ok && cur.id == t.id {
			delete(d.tasks, key)
		}
		d.mu.Unlock()
	})
	d.tasks[key] = t
	return t.id, true
}

// cancelLocked stops t. A task that has not started is dropped; a running task sees its context cancelled.
func (d *Debouncer) cancelLocked(t *task) {
	if t.timer.Stop() {
		t.cancel()
		if t.drop != nil {
			t.drop()
		}
		return
	}
	t.cancel()
}

// Cancel drops the pending or running task for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.cancelTask(key, 0)
}

// cancelTask cancels key's task; a non-zero id only cancels that exact task.
func (d *Debouncer) cancelTask(key string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tasks[key]
	if !ok || (id != 0 && t.id != id) {
		return
	}
	d.cancelLocked(t)
	delete(d.tasks, key)
}

// Pending reports how many keys have a scheduled or running task.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// Stop cancels every task and rejects new ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for key, t := range d.tasks {
		d.cancelLocked(t)
		delete(d.tasks, key)
	}
	d.stop()
}

// Search debounces fetch under key and waits for its result.
// PRE: d is not nil
// POST: exactly one of the callers racing on key gets fetch's result; the others get ErrSuperseded
func Search[T any](ctx context.Context, d *Debouncer, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	id, ok := d.schedule(key,
		func(runCtx context.Context) {
			v, err := fetch(runCtx)
			if runCtx.Err() != nil {
				ch <- result{err: ErrSuperseded}
				return
			}
			ch <- result{v: v, err: err}
		},
		func() { ch <- result{err: ErrSuperseded} },
	)
	var zero T
	if !ok {
		return zero, ErrStopped
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		d.cancelTask(key, id)
		return zero, ctx.Err()
	}
}
