// Package loader provides a load-once value shared by concurrent callers.
package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Func produces the value. It runs detached from any single caller's cancellation.
type Func[T any] func(ctx context.Context) (T, error)

// Loader memoises the first successful result of a Func.
// INVARIANT: at most one load is in flight; a failed load is forgotten so the next call retries.
type Loader[T any] struct {
	name    string
	load    Func[T]
	timeout time.Duration

	group singleflight.Group

	mu     sync.RWMutex
	loaded bool
	value  T
}

// New creates a Loader. timeout bounds each attempt; zero means no bound.
func New[T any](name string, timeout time.Duration, load Func[T]) *Loader[T] {
	return &Loader[T]{name: name, load: load, timeout: timeout}
}

// EnsureLoaded returns the memoised value, starting or joining the load when needed.
// PRE: none
// POST: on success the value is memoised; a cancelled ctx returns ctx.Err() without cancelling the shared load
func (l *Loader[T]) EnsureLoaded(ctx context.Context) (T, error) {
	if v, ok := l.Get(); ok {
		return v, nil
	}

	ch := l.group.DoChan(l.name, func() (any, error) {
		if v, ok := l.Get(); ok {
			return v, nil
		}
		loadCtx := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, l.timeout)
			defer cancel()
		}
		start := time.Now()
		v, err := l.load(loadCtx)
		if err != nil {
			slog.Warn("loader_event", "event", "load_failed", "name", l.name, "error", err)
			return v, err
		}
		l.mu.Lock()
		l.value, l.loaded = v, true
		l.mu.Unlock()
		slog.Info("loader_event", "event", "loaded", "name", l.name, "duration_ms", time.Since(start).Milliseconds())
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get returns the memoised value without loading.
func (l *Loader[T]) Get() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.loaded
}

// Reset forgets the memoised value so the next EnsureLoaded reloads.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	var zero T
	l.value, l.loaded = zero, false
	l.mu.Unlock()
}
