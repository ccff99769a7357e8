package broker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	repository "github.com/zdziszkee/mt103-simulator/internal/repositories"
	"github.com/zdziszkee/mt103-simulator/tests/mocks"
)

var _ = Describe("SQLBroker", func() {
	var (
		repo *mocks.MockMessageRepository
		b    *broker.SQLBroker
		ctx  context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = &mocks.MockMessageRepository{}
		b = broker.NewSQLBrokerWithRepository(repo, 10*time.Millisecond)
	})

	It("should require Open", func() {
		Expect(b.Send(ctx, "Q", "x")).To(MatchError(broker.ErrNotOpen))
		_, err := b.Receive(ctx, "Q", time.Millisecond)
		Expect(err).To(MatchError(broker.ErrNotOpen))
		_, err = b.Pending(ctx, "Q")
		Expect(err).To(MatchError(broker.ErrNotOpen))
	})

	Context("when open", func() {
		BeforeEach(func() {
			Expect(b.Open(ctx)).To(Succeed())
		})

		It("should enqueue sent payloads", func() {
			var gotQueue, gotPayload string
			repo.EnqueueFunc = func(_ context.Context, queue, payload string) (*repository.Message, error) {
				gotQueue, gotPayload = queue, payload
				return &repository.Message{ID: "id-1", Queue: queue, Payload: payload}, nil
			}

			Expect(b.Send(ctx, "BANKROB.Q", "payload")).To(Succeed())
			Expect(gotQueue).To(Equal("BANKROB.Q"))
			Expect(gotPayload).To(Equal("payload"))
		})

		It("should count pending rows per queue", func() {
			repo.CountFunc = func(_ context.Context, queue string) (int, error) {
				if queue == "BANKROB.Q" {
					return 3, nil
				}
				return 0, nil
			}

			Expect(b.Pending(ctx, "BANKROB.Q")).To(Equal(3))
			Expect(b.Pending(ctx, "BANKGRA.Q")).To(BeZero())
		})

		It("should wrap count failures", func() {
			repo.CountFunc = func(context.Context, string) (int, error) {
				return 0, errors.New("trino down")
			}
			_, err := b.Pending(ctx, "Q")
			Expect(err).To(MatchError(broker.ErrBroker))
		})

		It("should wrap enqueue failures", func() {
			repo.EnqueueFunc = func(context.Context, string, string) (*repository.Message, error) {
				return nil, errors.New("trino down")
			}
			Expect(b.Send(ctx, "Q", "x")).To(MatchError(broker.ErrBroker))
		})

		It("should poll until a message shows up", func() {
			var calls atomic.Int32
			repo.DequeueFunc = func(_ context.Context, queue string) (*repository.Message, error) {
				if calls.Add(1) < 3 {
					return nil, repository.ErrQueueEmpty
				}
				return &repository.Message{Payload: "third time"}, nil
			}

			msg, err := b.Receive(ctx, "Q", time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("third time"))
			Expect(calls.Load()).To(BeEquivalentTo(3))
		})

		It("should give up after the timeout with an empty message", func() {
			msg, err := b.Receive(ctx, "Q", 50*time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(BeEmpty())
		})

		It("should surface dequeue failures", func() {
			repo.DequeueFunc = func(context.Context, string) (*repository.Message, error) {
				return nil, errors.New("trino down")
			}
			_, err := b.Receive(ctx, "Q", time.Second)
			Expect(err).To(MatchError(broker.ErrBroker))
		})

		It("should close idempotently", func() {
			Expect(b.Close()).To(Succeed())
			Expect(b.Close()).To(Succeed())
			Expect(b.Send(ctx, "Q", "x")).To(MatchError(broker.ErrNotOpen))
		})
	})
})
