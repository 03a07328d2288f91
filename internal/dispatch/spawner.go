package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"kwdetect/internal/logging"
)

// Spawner runs every task on its own goroutine and tracks them so Close can
// wait for stragglers. Panics are recovered and logged like in Pool.
type Spawner struct {
	logger *slog.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	running atomic.Int64
	panics  atomic.Int64
}

// NewSpawner returns a Spawner logging through logger.
func NewSpawner(logger *slog.Logger) *Spawner {
	return &Spawner{logger: logging.NewComponentLogger(logger, "dispatch")}
}

// Submit starts task on a new goroutine. After Close the task is dropped.
func (s *Spawner) Submit(task func()) {
	if task == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("task submitted after close; dropping")
		return
	}
	s.wg.Add(1)
	s.running.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.panics.Add(1)
				s.logger.Error("dispatched task panicked", logging.String("panic", fmt.Sprint(r)))
			}
			s.running.Add(-1)
			s.wg.Done()
		}()
		task()
	}()
}

// Running reports how many tasks have not finished yet.
func (s *Spawner) Running() int64 { return s.running.Load() }

// Close stops accepting tasks and waits for running ones or ctx.
func (s *Spawner) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for spawned tasks: %w", ctx.Err())
	}
}
