package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs every worker on its own goroutine and stops them together
type Supervisor struct {
	mu      sync.Mutex
	workers []Worker
	started bool
	group   errgroup.Group
}

func NewSupervisor(workers ...Worker) *Supervisor {
	return &Supervisor{workers: workers}
}

// Add registers a worker. Workers cannot be added after Start.
func (s *Supervisor) Add(w Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.workers = append(s.workers, w)
	return nil
}

// Workers returns the supervised workers in registration order
func (s *Supervisor) Workers() []Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// Start launches every worker and returns immediately. A worker that
// exits with an error does not affect the others.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	for _, w := range s.workers {
		s.group.Go(func() error {
			if err := w.Run(ctx); err != nil {
				slog.Error("worker exited with error", "worker", w.Name(), "error", err)
				return err
			}
			return nil
		})
	}
	slog.Info("workers started", "count", len(s.workers))
	return nil
}

// Active counts workers that are Running or Stopping
func (s *Supervisor) Active() int {
	n := 0
	for _, w := range s.Workers() {
		if w.IsActive() {
			n++
		}
	}
	return n
}

// Wait blocks until every worker has exited and returns the first worker error
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}

// Shutdown signals every worker and blocks until all have stopped or ctx ends.
// It returns the first worker error, or ErrShutdownTimeout.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	workers := s.Workers()
	for _, w := range workers {
		w.SignalStop()
	}

	done := make(chan error, 1)
	go func() { done <- s.Wait() }()

	select {
	case err := <-done:
		slog.Info("workers stopped", "count", len(workers))
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %d still active: %w", ErrShutdownTimeout, s.Active(), ctx.Err())
	}
}

// Statuses snapshots every worker
func (s *Supervisor) Statuses() []Status {
	workers := s.Workers()
	out := make([]Status, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.Status())
	}
	return out
}
