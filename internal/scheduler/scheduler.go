// FilePath: internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Scheduler centralizes the recurring polling loops of the portal. Features
// register a keyed loop instead of owning ad-hoc timers; re-registering a
// key cancels the previous loop first, so cancellation on target change is
// structural rather than per-feature discipline.
type Scheduler struct {
	mu    sync.Mutex
	loops map[string]context.CancelFunc
}

func New() *Scheduler {
	return &Scheduler{
		loops: make(map[string]context.CancelFunc),
	}
}

// Every runs fn once immediately and then on every interval tick, until the
// key is cancelled, re-registered, or the parent context ends. At most one
// loop exists per key.
func (s *Scheduler) Every(ctx context.Context, key string, interval time.Duration, fn func(context.Context)) {
	loopCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.loops[key]; ok {
		prev()
	}
	s.loops[key] = cancel
	s.mu.Unlock()

	go func() {
		fn(loopCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				fn(loopCtx)
			}
		}
	}()
}

// Cancel stops the loop registered under key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.loops[key]; ok {
		cancel()
		delete(s.loops, key)
	}
}

// Active reports whether a loop is currently registered under key.
func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[key]
	return ok
}

// Shutdown cancels every registered loop.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cancel := range s.loops {
		cancel()
		delete(s.loops, key)
	}
	nuts.L.Infof("[Scheduler] All polling loops stopped")
}
