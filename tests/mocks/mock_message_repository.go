package mocks

import (
	"context"
	"errors"

	repository "github.com/zdziszkee/mt103-simulator/internal/repositories"
)

// MockMessageRepository implements the MessageRepository interface for testing
type MockMessageRepository struct {
	EnqueueFunc func(ctx context.Context, queue, payload string) (*repository.Message, error)
	DequeueFunc func(ctx context.Context, queue string) (*repository.Message, error)
	CountFunc   func(ctx context.Context, queue string) (int, error)
}

func (m *MockMessageRepository) Enqueue(ctx context.Context, queue, payload string) (*repository.Message, error) {
	return m.EnqueueFunc(ctx, queue, payload)
}

func (m *MockMessageRepository) Dequeue(ctx context.Context, queue string) (*repository.Message, error) {
	if m.DequeueFunc != nil {
		return m.DequeueFunc(ctx, queue)
	}
	return nil, repository.ErrQueueEmpty
}

func (m *MockMessageRepository) Count(ctx context.Context, queue string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, queue)
	}
	return 0, errors.New("Count not implemented")
}
