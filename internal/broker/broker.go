// Package broker moves encoded MT103 messages between named queues.
//
// Every worker owns its own Broker instance; Open must be called before
// Send or Receive and Close releases whatever the implementation holds.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zdziszkee/mt103-simulator/internal/database"
)

var (
	ErrBroker      = errors.New("broker failure")
	ErrNotOpen     = errors.New("broker connection not open")
	ErrQueueFull   = errors.New("queue is full")
	ErrUnknownType = errors.New("unknown broker type")
)

// Broker is a point-to-point text message connection
type Broker interface {
	// Open establishes the connection.
	Open(ctx context.Context) error
	// Send delivers payload to queue, creating the queue when needed.
	Send(ctx context.Context, queue, payload string) error
	// Receive waits up to timeout for the next message on queue. An empty
	// string with a nil error means nothing arrived in time.
	Receive(ctx context.Context, queue string, timeout time.Duration) (string, error)
	// Close releases the connection. Closing twice is a no-op.
	Close() error
}

// Config selects and tunes the broker implementation
type Config struct {
	Type           string        `koanf:"type"`
	ReceiveTimeout time.Duration `koanf:"receive_timeout"`
	QueueCapacity  int           `koanf:"queue_capacity"`
	PollInterval   time.Duration `koanf:"poll_interval"`
}

const (
	TypeMemory = "memory"
	TypeSQL    = "sql"
)

// Factory hands out fresh unopened connections, one per worker
type Factory func() (Broker, error)

// NewFactory returns a Factory for the configured broker type. The memory
// broker shares hub between all connections; the sql broker opens its own
// database connection per instance.
func NewFactory(config Config, dbConfig database.Config, hub *Hub) (Factory, error) {
	switch config.Type {
	case TypeMemory, "":
		if hub == nil {
			hub = NewHub(config.QueueCapacity)
		}
		return func() (Broker, error) {
			return NewMemoryBroker(hub), nil
		}, nil
	case TypeSQL:
		return func() (Broker, error) {
			return NewSQLBroker(dbConfig, config.PollInterval), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, config.Type)
	}
}

func wrap(err error) error {
	if err == nil || errors.Is(err, ErrBroker) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBroker, err)
}
