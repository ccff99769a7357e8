package mocks

import (
	"context"
	"time"
)

// MockBroker implements the broker.Broker interface for testing
type MockBroker struct {
	OpenFunc    func(ctx context.Context) error
	SendFunc    func(ctx context.Context, queue, payload string) error
	ReceiveFunc func(ctx context.Context, queue string, timeout time.Duration) (string, error)
	CloseFunc   func() error
}

func (m *MockBroker) Open(ctx context.Context) error {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return nil
}

func (m *MockBroker) Send(ctx context.Context, queue, payload string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, queue, payload)
	}
	return nil
}

// Receive sleeps for timeout and returns nothing unless ReceiveFunc is set
func (m *MockBroker) Receive(ctx context.Context, queue string, timeout time.Duration) (string, error) {
	if m.ReceiveFunc != nil {
		return m.ReceiveFunc(ctx, queue, timeout)
	}
	select {
	case <-time.After(timeout):
	case <-ctx.Done():
	}
	return "", nil
}

func (m *MockBroker) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
