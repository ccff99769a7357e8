// Package workers runs the per-bank sender and receiver loops and the
// supervisor that starts and stops them.
package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrUnknownAccount  = errors.New("unknown destination account")
	ErrNoPeers         = errors.New("sender has no peers")
	ErrInvalidPeer     = errors.New("invalid peer")
	ErrAlreadyStarted  = errors.New("worker already started")
	ErrShutdownTimeout = errors.New("workers did not stop in time")
)

// DefaultMaxFailures is how many failures a worker tolerates; one more stops it.
// A zero MaxFailures in a worker config means this default.
const DefaultMaxFailures = 4

// State of a worker. It only moves forward.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	KindSender   = "sender"
	KindReceiver = "receiver"
)

// Status is a snapshot of a worker for reporting
type Status struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Bank         string `json:"bank"`
	State        string `json:"state"`
	Failures     int    `json:"failures"`
	Sent         int64  `json:"sent"`
	Received     int64  `json:"received"`
	InFlightLoss int64  `json:"in_flight_loss"`
}

// Worker is a long-running loop owned by one bank
type Worker interface {
	Name() string
	// Run blocks until the worker stops. It may be called once.
	Run(ctx context.Context) error
	// SignalStop asks the worker to stop. Safe to call any number of times.
	SignalStop()
	// IsActive reports Running or Stopping.
	IsActive() bool
	State() State
	Failures() int
	// Done is closed once Run has returned.
	Done() <-chan struct{}
	Status() Status
}

// lifecycle holds the state shared by every worker kind
type lifecycle struct {
	name        string
	maxFailures int
	logger      *slog.Logger

	state    atomic.Int32
	failures atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func (l *lifecycle) init(name string, maxFailures int) {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	l.name = name
	l.maxFailures = maxFailures
	l.logger = slog.Default().With("worker", name)
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
}

func (l *lifecycle) Name() string          { return l.name }
func (l *lifecycle) State() State          { return State(l.state.Load()) }
func (l *lifecycle) Failures() int         { return int(l.failures.Load()) }
func (l *lifecycle) Done() <-chan struct{} { return l.done }

func (l *lifecycle) IsActive() bool {
	s := l.State()
	return s == Running || s == Stopping
}

func (l *lifecycle) SignalStop() {
	l.stopOnce.Do(func() {
		l.state.CompareAndSwap(int32(Running), int32(Stopping))
		close(l.stopCh)
	})
}

func (l *lifecycle) begin() error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrAlreadyStarted
	}
	l.logger.Info("worker started")
	return nil
}

func (l *lifecycle) finish() {
	l.state.Store(int32(Stopped))
	close(l.done)
	l.logger.Info("worker stopped", "failures", l.Failures())
}

// running is checked between loop iterations.
func (l *lifecycle) running(ctx context.Context) bool {
	if l.State() != Running || ctx.Err() != nil {
		return false
	}
	select {
	case <-l.stopCh:
		return false
	default:
		return true
	}
}

// fail counts a failure and moves the worker to Stopping once the
// threshold is exceeded. It reports whether that happened.
func (l *lifecycle) fail(err error) bool {
	n := int(l.failures.Add(1))
	l.logger.Warn("worker failure", "error", err, "failures", n)
	if n <= l.maxFailures {
		return false
	}
	if l.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		l.logger.Error("too many failures, stopping", "failures", n)
	}
	return true
}

// sleep waits for d. It returns false when a stop arrives first.
func (l *lifecycle) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return l.running(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-l.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// stopContext is cancelled when a stop is requested, which cuts a blocking
// receive short.
func (l *lifecycle) stopContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-l.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
