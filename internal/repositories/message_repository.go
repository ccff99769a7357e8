package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zdziszkee/mt103-simulator/internal/database"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrInvalidData = errors.New("invalid data provided")
)

// Message is one row of the message table
type Message struct {
	ID         string    `json:"id"`
	Queue      string    `json:"queue"`
	Payload    string    `json:"payload"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// MessageRepository stores queued messages in a SQL table
type MessageRepository interface {
	Enqueue(ctx context.Context, queue, payload string) (*Message, error)
	Dequeue(ctx context.Context, queue string) (*Message, error)
	Count(ctx context.Context, queue string) (int, error)
}

// SQLMessageRepository implements MessageRepository using Trino via database/sql
type SQLMessageRepository struct {
	db     *sql.DB
	config database.Config
}

// NewSQLMessageRepository creates a new repository over the given connection
func NewSQLMessageRepository(db *database.Database, config database.Config) *SQLMessageRepository {
	return &SQLMessageRepository{db: db.DB, config: config}
}

// Enqueue inserts the payload under a fresh message id
func (r *SQLMessageRepository) Enqueue(ctx context.Context, queue, payload string) (*Message, error) {
	if queue == "" {
		return nil, fmt.Errorf("%w: empty queue name", ErrInvalidData)
	}

	msg := &Message{
		ID:         uuid.NewString(),
		Queue:      queue,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	query := fmt.Sprintf("INSERT INTO %s (id, queue_name, payload, enqueued_at) VALUES (?, ?, ?, ?)", r.tableName())
	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.Queue, msg.Payload, msg.EnqueuedAt); err != nil {
		return nil, fmt.Errorf("trino insert failed: %w", err)
	}
	return msg, nil
}

// Dequeue removes and returns the oldest message of the queue.
// ErrQueueEmpty is returned when there is nothing to take, including when
// another consumer deleted the selected row first.
func (r *SQLMessageRepository) Dequeue(ctx context.Context, queue string) (*Message, error) {
	query := fmt.Sprintf("SELECT id, queue_name, payload, enqueued_at FROM %s WHERE queue_name = ? ORDER BY enqueued_at, id LIMIT 1", r.tableName())

	var msg Message
	err := r.db.QueryRowContext(ctx, query, queue).Scan(&msg.ID, &msg.Queue, &msg.Payload, &msg.EnqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("trino select failed: %w", err)
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.tableName())
	result, err := r.db.ExecContext(ctx, del, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("trino delete failed: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		slog.Debug("message already taken", "id", msg.ID, "queue", queue)
		return nil, ErrQueueEmpty
	}
	return &msg, nil
}

// Count returns the number of messages waiting on the queue
func (r *SQLMessageRepository) Count(ctx context.Context, queue string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE queue_name = ?", r.tableName())
	var n int
	if err := r.db.QueryRowContext(ctx, query, queue).Scan(&n); err != nil {
		return 0, fmt.Errorf("trino count failed: %w", err)
	}
	return n, nil
}

func (r *SQLMessageRepository) tableName() string {
	return r.config.QualifiedTable()
}
