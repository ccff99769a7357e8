package workers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/mt103"
	"github.com/zdziszkee/mt103-simulator/internal/registry"
)

const (
	DefaultRateMin = 2 * time.Second
	DefaultRateMax = 7 * time.Second

	sessionLimit = 10000
)

type SenderConfig struct {
	RateMin     time.Duration `koanf:"rate_min"`
	RateMax     time.Duration `koanf:"rate_max"`
	MaxFailures int           `koanf:"max_failures"`
}

// Sender moves random amounts from its bank's accounts to accounts of peer banks
type Sender struct {
	lifecycle

	registry *registry.Registry
	self     registry.Handle
	bank     *models.Bank
	broker   broker.Broker
	config   SenderConfig
	rng      *rand.Rand
	session  int
	peers    []registry.Handle

	seq          atomic.Int64
	sent         atomic.Int64
	inFlightLoss atomic.Int64
}

// NewSender creates an idle sender for the bank behind self. The broker must
// be dedicated to it. A nil rng gets a private, randomly seeded generator.
func NewSender(reg *registry.Registry, self registry.Handle, b broker.Broker, config SenderConfig, rng *rand.Rand) (*Sender, error) {
	bank := reg.Bank(self)
	if bank == nil {
		return nil, fmt.Errorf("%w: handle %d", registry.ErrUnknownBank, self)
	}
	if config.RateMin <= 0 {
		config.RateMin = DefaultRateMin
	}
	if config.RateMax < config.RateMin {
		config.RateMax = config.RateMin
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &Sender{
		registry: reg,
		self:     self,
		bank:     bank,
		broker:   b,
		config:   config,
		rng:      rng,
		session:  rng.IntN(sessionLimit),
	}
	s.init(KindSender+"-"+bank.SwiftName(), config.MaxFailures)
	return s, nil
}

// AddPeer registers a destination bank. Peers must be added before Run.
func (s *Sender) AddPeer(h registry.Handle) error {
	if s.State() != Idle {
		return ErrAlreadyStarted
	}
	if !s.registry.Valid(h) || h == s.self {
		return fmt.Errorf("%w: handle %d for %s", ErrInvalidPeer, h, s.name)
	}
	s.peers = append(s.peers, h)
	return nil
}

func (s *Sender) Run(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()

	if len(s.peers) == 0 {
		s.logger.Error("no peers to send to")
		return fmt.Errorf("%s: %w", s.name, ErrNoPeers)
	}

	if err := s.broker.Open(ctx); err != nil {
		s.logger.Error("cannot open broker connection", "error", err)
		return fmt.Errorf("%s: %w", s.name, err)
	}
	defer func() {
		if err := s.broker.Close(); err != nil {
			s.logger.Warn("closing broker connection", "error", err)
		}
	}()

	s.logger.Info("sending", "session", s.session, "peers", len(s.peers))
	for s.running(ctx) {
		if err := s.step(ctx); err != nil && s.fail(err) {
			break
		}
		if !s.sleep(ctx, s.delay()) {
			break
		}
	}
	return nil
}

// step performs one send attempt. A zero draw sends nothing.
func (s *Sender) step(ctx context.Context) error {
	from := s.bank.RandomAccount(s.rng)
	amount := from.DebitRandom(s.rng)
	if amount == 0 {
		return nil
	}

	peer := s.registry.Bank(s.peers[s.rng.IntN(len(s.peers))])
	to := peer.RandomAccount(s.rng)

	seq := int(s.seq.Load())
	defer s.seq.Add(1)

	payment, err := mt103.NewPayment(
		mt103.Party{Bank: s.bank.SwiftName(), Branch: s.bank.BranchCode(), Account: from.Number(), Name: from.Name()},
		mt103.Party{Bank: peer.SwiftName(), Branch: peer.BranchCode(), Account: to.Number(), Name: to.Name()},
		amount, s.bank.DefaultCurrency(), s.session, seq, s.rng,
	)
	if err != nil {
		s.inFlightLoss.Add(int64(amount))
		return err
	}

	if err := s.broker.Send(ctx, peer.QueueName(), mt103.Encode(payment)); err != nil {
		s.inFlightLoss.Add(int64(amount))
		return err
	}
	s.sent.Add(1)
	s.logger.Debug("payment sent", "payment", payment.Summary(), "seq", seq)
	return nil
}

// delay is uniform in [RateMin, RateMax)
func (s *Sender) delay() time.Duration {
	spread := s.config.RateMax - s.config.RateMin
	if spread <= 0 {
		return s.config.RateMin
	}
	return s.config.RateMin + time.Duration(s.rng.Int64N(int64(spread)))
}

// Session is fixed for the lifetime of the sender
func (s *Sender) Session() int { return s.session }

// Sequence is the number the next payment will carry
func (s *Sender) Sequence() int { return int(s.seq.Load()) }

func (s *Sender) Sent() int64 { return s.sent.Load() }

// InFlightLoss sums amounts debited whose payment never reached the broker
func (s *Sender) InFlightLoss() int64 { return s.inFlightLoss.Load() }

func (s *Sender) Status() Status {
	return Status{
		Name:         s.name,
		Kind:         KindSender,
		Bank:         s.bank.SwiftName(),
		State:        s.State().String(),
		Failures:     s.Failures(),
		Sent:         s.Sent(),
		InFlightLoss: s.InFlightLoss(),
	}
}
