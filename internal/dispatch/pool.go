package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"kwdetect/internal/config"
	"kwdetect/internal/detector"
	"kwdetect/internal/logging"
)

// ErrClosed is returned by Close when the pool was already closed.
var ErrClosed = errors.New("dispatch pool closed")

// Stats counts pool activity.
type Stats struct {
	Submitted int64
	Completed int64
	Overflow  int64
	Dropped   int64
	Panics    int64
}

// Pool is a fixed set of workers fed from a buffered queue.
type Pool struct {
	logger *slog.Logger
	tasks  chan func()
	group  errgroup.Group

	mu     sync.RWMutex
	closed bool

	overflow sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	overflows atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

// NewPool starts workers goroutines reading from a queue of queueSize tasks.
// Values below 1 are raised to 1.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		logger: logging.NewComponentLogger(logger, "dispatch"),
		tasks:  make(chan func(), queueSize),
	}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for task := range p.tasks {
				p.run(task)
			}
			return nil
		})
	}
	p.logger.Debug("dispatch pool started", logging.Int("workers", workers), logging.Int("queue_size", queueSize))
	return p
}

// Submit queues task. It never blocks: a full queue hands the task to a new
// goroutine, and a closed pool drops it.
func (p *Pool) Submit(task func()) {
	if task == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		p.logger.Warn("task submitted after close; dropping")
		return
	}
	p.submitted.Add(1)
	select {
	case p.tasks <- task:
	default:
		p.overflows.Add(1)
		p.overflow.Add(1)
		go func() {
			defer p.overflow.Done()
			p.run(task)
		}()
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("dispatched task panicked", logging.String("panic", fmt.Sprint(r)))
		}
		p.completed.Add(1)
	}()
	task()
}

// Close stops accepting tasks, lets queued ones finish, and waits for the
// workers or ctx, whichever comes first.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := p.group.Wait()
		p.overflow.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		stats := p.Stats()
		p.logger.Debug("dispatch pool stopped",
			logging.Int64("completed", stats.Completed),
			logging.Int64("overflow", stats.Overflow),
		)
		return err
	case <-ctx.Done():
		return fmt.Errorf("wait for dispatch workers: %w", ctx.Err())
	}
}

// Stats returns a point-in-time copy of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Overflow:  p.overflows.Load(),
		Dropped:   p.dropped.Load(),
		Panics:    p.panics.Load(),
	}
}

// FromConfig builds the dispatcher selected by cfg.Dispatch. The returned
// shutdown function stops it and waits for tasks already handed over.
func FromConfig(cfg *config.Config, logger *slog.Logger) (detector.Dispatcher, func(context.Context) error) {
	if cfg == nil || cfg.Dispatch.Mode == config.DispatchModeSpawn {
		spawner := NewSpawner(logger)
		return spawner, spawner.Close
	}
	pool := NewPool(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, logger)
	return pool, pool.Close
}
