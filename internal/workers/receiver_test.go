package workers_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/mt103"
	"github.com/zdziszkee/mt103-simulator/internal/workers"
	"github.com/zdziszkee/mt103-simulator/tests/mocks"
)

func newTestBank(swift, queue string, names ...string) *models.Bank {
	bank, err := models.NewBank("Bank"+swift, swift, models.GBP, queue, rand.New(rand.NewPCG(3, 4)))
	Expect(err).NotTo(HaveOccurred())
	for _, n := range names {
		Expect(bank.OpenAccount(n)).To(BeTrue())
	}
	Expect(bank.Freeze()).To(Succeed())
	return bank
}

func paymentTo(bank *models.Bank, account string, amount int) string {
	p, err := mt103.NewPayment(
		mt103.Party{Bank: "BANKROBE", Branch: "ABC", Account: "12345678901234567890", Name: "Rob Parker"},
		mt103.Party{Bank: bank.SwiftName(), Branch: bank.BranchCode(), Account: account, Name: "Harry Houdini"},
		amount, models.GBP, 7, 0, nil,
	)
	Expect(err).NotTo(HaveOccurred())
	return mt103.Encode(p)
}

var _ = Describe("Receiver", func() {
	var (
		bank   *models.Bank
		target *models.Account
		hub    *broker.Hub
		config workers.ReceiverConfig
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		bank = newTestBank("BANKGRAH", "BANKGRA.Q", "Harry Houdini", "Alice Baker")
		target = bank.Accounts()[0]
		hub = broker.NewHub(64)
		config = workers.ReceiverConfig{Timeout: 20 * time.Millisecond, MaxFailures: 4}
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	// sendRaw puts a payload straight onto the bank's queue
	sendRaw := func(payload string) {
		conn := broker.NewMemoryBroker(hub)
		Expect(conn.Open(ctx)).To(Succeed())
		Expect(conn.Send(ctx, bank.QueueName(), payload)).To(Succeed())
	}

	Describe("Deliver", func() {
		It("should credit the destination account", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)

			Expect(r.Deliver(paymentTo(bank, target.Number(), 250))).To(Succeed())
			Expect(target.Balance()).To(Equal(1250))
			Expect(r.Received()).To(BeEquivalentTo(1))
			Expect(r.Credited()).To(BeEquivalentTo(250))
		})

		It("should refuse unknown accounts without touching balances", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			before := bank.TotalBalance()

			err := r.Deliver(paymentTo(bank, "00000000000000000000", 250))
			Expect(err).To(MatchError(workers.ErrUnknownAccount))
			Expect(bank.TotalBalance()).To(Equal(before))
		})

		It("should report malformed payloads", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			Expect(r.Deliver("garbage")).To(MatchError(mt103.ErrDecode))
			Expect(r.Received()).To(BeZero())
		})

		It("should verify the checksum in strict mode", func() {
			config.StrictChecksum = true
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)

			tampered := strings.Replace(paymentTo(bank, target.Number(), 250), "GBP250,00", "GBP999,00", 1)
			Expect(r.Deliver(tampered)).To(MatchError(mt103.ErrChecksum))
			Expect(target.Balance()).To(Equal(1000))
		})

		It("should accept a tampered body when not strict", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)

			tampered := strings.Replace(paymentTo(bank, target.Number(), 250), "GBP250,00", "GBP999,00", 1)
			Expect(r.Deliver(tampered)).To(Succeed())
			Expect(target.Balance()).To(Equal(1999))
		})
	})

	Describe("Run", func() {
		It("should credit payments arriving on its queue", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			go r.Run(ctx)

			sendRaw(paymentTo(bank, target.Number(), 40))
			sendRaw(paymentTo(bank, target.Number(), 2))

			Eventually(target.Balance).Should(Equal(1042))
			Expect(r.IsActive()).To(BeTrue())
			Expect(r.Failures()).To(BeZero())

			r.SignalStop()
			Eventually(r.Done()).Should(BeClosed())
			Expect(r.State()).To(Equal(workers.Stopped))
		})

		It("should count an unknown account as a failure", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			before := bank.TotalBalance()
			go r.Run(ctx)

			sendRaw(paymentTo(bank, "00000000000000000000", 250))

			Eventually(r.Failures).Should(Equal(1))
			Expect(bank.TotalBalance()).To(Equal(before))
			Expect(r.IsActive()).To(BeTrue())
			r.SignalStop()
			Eventually(r.Done()).Should(BeClosed())
		})

		It("should stop itself after more than four failures", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			for range 6 {
				sendRaw("not an mt103 message")
			}
			go r.Run(ctx)

			Eventually(r.Done()).Should(BeClosed())
			Expect(r.Failures()).To(Equal(5))
			Expect(r.IsActive()).To(BeFalse())
			Expect(hub.Pending(bank.QueueName())).To(Equal(1))
		})

		It("should tolerate four failures when the threshold is left unset", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), workers.ReceiverConfig{Timeout: 20 * time.Millisecond})
			go r.Run(ctx)

			for i := 1; i <= 4; i++ {
				sendRaw("garbage")
				Eventually(r.Failures).Should(Equal(i))
			}
			Consistently(r.IsActive, 100*time.Millisecond).Should(BeTrue())

			sendRaw("garbage")
			Eventually(r.Done()).Should(BeClosed())
			Expect(r.Failures()).To(Equal(5))
			Expect(r.State()).To(Equal(workers.Stopped))
		})

		It("should count broker errors as failures", func() {
			conn := &mocks.MockBroker{
				ReceiveFunc: func(context.Context, string, time.Duration) (string, error) {
					return "", errors.New("connection reset")
				},
			}
			r := workers.NewReceiver(bank, conn, config)

			Expect(r.Run(ctx)).To(Succeed())
			Expect(r.Failures()).To(Equal(5))
			Expect(r.State()).To(Equal(workers.Stopped))
		})

		It("should return the open error", func() {
			closed := false
			conn := &mocks.MockBroker{
				OpenFunc:  func(context.Context) error { return broker.ErrBroker },
				CloseFunc: func() error { closed = true; return nil },
			}
			r := workers.NewReceiver(bank, conn, config)

			Expect(r.Run(ctx)).To(MatchError(broker.ErrBroker))
			Expect(r.State()).To(Equal(workers.Stopped))
			Expect(closed).To(BeFalse())
		})

		It("should close its connection on exit", func() {
			closed := make(chan struct{})
			conn := &mocks.MockBroker{CloseFunc: func() error { close(closed); return nil }}
			r := workers.NewReceiver(bank, conn, config)
			go r.Run(ctx)

			Eventually(r.IsActive).Should(BeTrue())
			r.SignalStop()
			Eventually(closed).Should(BeClosed())
		})

		It("should notice a stop while blocked in receive", func() {
			config.Timeout = 10 * time.Second
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			go r.Run(ctx)

			Eventually(r.IsActive).Should(BeTrue())
			start := time.Now()
			r.SignalStop()
			Eventually(r.Done()).Should(BeClosed())
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("should refuse to run twice", func() {
			r := workers.NewReceiver(bank, broker.NewMemoryBroker(hub), config)
			r.SignalStop()
			Expect(r.Run(ctx)).To(Succeed())
			Expect(r.Run(ctx)).To(MatchError(workers.ErrAlreadyStarted))
		})
	})
})
