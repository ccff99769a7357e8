package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity bounds each in-memory queue
const DefaultQueueCapacity = 1024

// Hub is a process-local set of bounded FIFO queues shared by MemoryBrokers
type Hub struct {
	mu       sync.Mutex
	capacity int
	queues   map[string]chan string
}

// NewHub creates a hub whose queues hold at most capacity messages
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Hub{capacity: capacity, queues: make(map[string]chan string)}
}

func (h *Hub) queue(name string) chan string {
	h.mu.Lock()
	defer h.mu.Unlock()

	q, ok := h.queues[name]
	if !ok {
		q = make(chan string, h.capacity)
		h.queues[name] = q
	}
	return q
}

// Pending reports how many messages wait on the queue
func (h *Hub) Pending(name string) int {
	return len(h.queue(name))
}

// Drain removes and returns every message currently waiting on the queue
func (h *Hub) Drain(name string) []string {
	q := h.queue(name)
	var out []string
	for {
		select {
		case msg := <-q:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// MemoryBroker is a Broker connection onto a Hub
type MemoryBroker struct {
	hub  *Hub
	open atomic.Bool
}

// NewMemoryBroker creates an unopened connection onto hub
func NewMemoryBroker(hub *Hub) *MemoryBroker {
	return &MemoryBroker{hub: hub}
}

func (b *MemoryBroker) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrap(err)
	}
	b.open.Store(true)
	return nil
}

func (b *MemoryBroker) Send(ctx context.Context, queue, payload string) error {
	if !b.open.Load() {
		return wrap(ErrNotOpen)
	}
	select {
	case b.hub.queue(queue) <- payload:
		return nil
	case <-ctx.Done():
		return wrap(ctx.Err())
	default:
		return wrap(fmt.Errorf("%w: %s", ErrQueueFull, queue))
	}
}

func (b *MemoryBroker) Receive(ctx context.Context, queue string, timeout time.Duration) (string, error) {
	if !b.open.Load() {
		return "", wrap(ErrNotOpen)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-b.hub.queue(queue):
		return msg, nil
	case <-timer.C:
		return "", nil
	case <-ctx.Done():
		return "", nil
	}
}

func (b *MemoryBroker) Close() error {
	b.open.Store(false)
	return nil
}
