package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/mt103"
)

// DefaultReceiveTimeout bounds each blocking receive, and so how late a stop is noticed
const DefaultReceiveTimeout = time.Second

type ReceiverConfig struct {
	Timeout        time.Duration `koanf:"-"`
	MaxFailures    int           `koanf:"max_failures"`
	StrictChecksum bool          `koanf:"strict_checksum"`
}

// Receiver takes payments off its bank's queue and credits the destination accounts
type Receiver struct {
	lifecycle

	bank   *models.Bank
	broker broker.Broker
	config ReceiverConfig

	received atomic.Int64
	credited atomic.Int64
}

// NewReceiver creates an idle receiver. The broker must be dedicated to it.
func NewReceiver(bank *models.Bank, b broker.Broker, config ReceiverConfig) *Receiver {
	if config.Timeout <= 0 {
		config.Timeout = DefaultReceiveTimeout
	}
	r := &Receiver{bank: bank, broker: b, config: config}
	r.init(KindReceiver+"-"+bank.SwiftName(), config.MaxFailures)
	return r
}

func (r *Receiver) Run(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.finish()

	if err := r.broker.Open(ctx); err != nil {
		r.logger.Error("cannot open broker connection", "error", err)
		return fmt.Errorf("%s: %w", r.name, err)
	}
	defer func() {
		if err := r.broker.Close(); err != nil {
			r.logger.Warn("closing broker connection", "error", err)
		}
	}()

	recvCtx, cancel := r.stopContext(ctx)
	defer cancel()

	queue := r.bank.QueueName()
	for r.running(ctx) {
		payload, err := r.broker.Receive(recvCtx, queue, r.config.Timeout)
		if err != nil {
			if r.fail(err) {
				break
			}
			continue
		}
		if payload == "" {
			continue
		}
		if err := r.Deliver(payload); err != nil && r.fail(err) {
			break
		}
	}
	return nil
}

// Deliver decodes one message and credits the destination account.
// Nothing is mutated when it returns an error.
func (r *Receiver) Deliver(payload string) error {
	decode := mt103.Decode
	if r.config.StrictChecksum {
		decode = mt103.DecodeStrict
	}

	p, err := decode(payload)
	if err != nil {
		return err
	}
	r.received.Add(1)

	account := r.bank.AccountByNumber(p.Receiver.Account)
	if account == nil {
		return fmt.Errorf("%w: %s at %s", ErrUnknownAccount, p.Receiver.Account, r.bank.SwiftName())
	}
	account.Credit(p.Amount)
	r.credited.Add(int64(p.Amount))
	r.logger.Debug("payment received", "payment", p.Summary(), "transaction_ref", p.TransactionRef)
	return nil
}

// Received counts decoded messages, including ones for unknown accounts
func (r *Receiver) Received() int64 { return r.received.Load() }

// Credited sums the amounts credited so far
func (r *Receiver) Credited() int64 { return r.credited.Load() }

func (r *Receiver) Status() Status {
	return Status{
		Name:     r.name,
		Kind:     KindReceiver,
		Bank:     r.bank.SwiftName(),
		State:    r.State().String(),
		Failures: r.Failures(),
		Received: r.Received(),
	}
}
