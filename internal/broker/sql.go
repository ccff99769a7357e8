package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zdziszkee/mt103-simulator/internal/database"
	repository "github.com/zdziszkee/mt103-simulator/internal/repositories"
)

// DefaultPollInterval is how often an idle SQL receiver checks its queue
const DefaultPollInterval = 200 * time.Millisecond

// SQLBroker keeps queues as rows of a Trino table
type SQLBroker struct {
	mu           sync.Mutex
	config       database.Config
	pollInterval time.Duration
	db           *database.Database
	repo         repository.MessageRepository
	connect      func(ctx context.Context) (repository.MessageRepository, *database.Database, error)
}

// NewSQLBroker creates an unopened broker that connects with config on Open
func NewSQLBroker(config database.Config, pollInterval time.Duration) *SQLBroker {
	b := &SQLBroker{config: config, pollInterval: pollInterval}
	b.connect = func(ctx context.Context) (repository.MessageRepository, *database.Database, error) {
		db, err := database.New(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLMessageRepository(db, config), db, nil
	}
	return b
}

// NewSQLBrokerWithRepository creates an unopened broker over an existing repository
func NewSQLBrokerWithRepository(repo repository.MessageRepository, pollInterval time.Duration) *SQLBroker {
	return &SQLBroker{
		pollInterval: pollInterval,
		connect: func(context.Context) (repository.MessageRepository, *database.Database, error) {
			return repo, nil, nil
		},
	}
}

func (b *SQLBroker) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.repo != nil {
		return nil
	}
	repo, db, err := b.connect(ctx)
	if err != nil {
		return wrap(err)
	}
	b.repo, b.db = repo, db
	return nil
}

func (b *SQLBroker) current() (repository.MessageRepository, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.repo == nil {
		return nil, wrap(ErrNotOpen)
	}
	return b.repo, nil
}

func (b *SQLBroker) Send(ctx context.Context, queue, payload string) error {
	repo, err := b.current()
	if err != nil {
		return err
	}
	msg, err := repo.Enqueue(ctx, queue, payload)
	if err != nil {
		return wrap(err)
	}
	slog.Debug("message enqueued", "id", msg.ID, "queue", queue)
	return nil
}

func (b *SQLBroker) Receive(ctx context.Context, queue string, timeout time.Duration) (string, error) {
	repo, err := b.current()
	if err != nil {
		return "", err
	}

	interval := b.pollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	for {
		msg, err := repo.Dequeue(ctx, queue)
		switch {
		case err == nil:
			return msg.Payload, nil
		case errors.Is(err, repository.ErrQueueEmpty):
		case ctx.Err() != nil:
			return "", nil
		default:
			return "", wrap(err)
		}

		wait := min(interval, time.Until(deadline))
		if wait <= 0 {
			return "", nil
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", nil
		}
	}
}

// Pending returns how many messages are still stored for queue
func (b *SQLBroker) Pending(ctx context.Context, queue string) (int, error) {
	repo, err := b.current()
	if err != nil {
		return 0, err
	}
	n, err := repo.Count(ctx, queue)
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (b *SQLBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db := b.db
	b.repo, b.db = nil, nil
	if db != nil {
		return wrap(db.Close())
	}
	return nil
}
