package workers

import (
	"fmt"
	"math/rand/v2"

	"github.com/zdziszkee/mt103-simulator/internal/broker"
	"github.com/zdziszkee/mt103-simulator/internal/registry"
)

// BuildSupervisor creates one receiver and one sender per bank, each with a
// connection of its own, and wires every other bank as a sender peer. With a
// nil seed every sender draws from an independently seeded generator.
func BuildSupervisor(reg *registry.Registry, newBroker broker.Factory, senderConfig SenderConfig, receiverConfig ReceiverConfig, seed *rand.Rand) (*Supervisor, error) {
	sup := NewSupervisor()

	for _, h := range reg.Handles() {
		bank := reg.Bank(h)

		recvConn, err := newBroker()
		if err != nil {
			return nil, fmt.Errorf("receiver connection for %s: %w", bank.SwiftName(), err)
		}
		if err := sup.Add(NewReceiver(bank, recvConn, receiverConfig)); err != nil {
			return nil, err
		}

		sendConn, err := newBroker()
		if err != nil {
			return nil, fmt.Errorf("sender connection for %s: %w", bank.SwiftName(), err)
		}
		var rng *rand.Rand
		if seed != nil {
			rng = rand.New(rand.NewPCG(seed.Uint64(), seed.Uint64()))
		}
		sender, err := NewSender(reg, h, sendConn, senderConfig, rng)
		if err != nil {
			return nil, err
		}
		for _, peer := range reg.Peers(h) {
			if err := sender.AddPeer(peer); err != nil {
				return nil, err
			}
		}
		if err := sup.Add(sender); err != nil {
			return nil, err
		}
	}
	return sup, nil
}

// InFlightLoss sums the in-flight loss of every supervised sender
func (s *Supervisor) InFlightLoss() int64 {
	var total int64
	for _, w := range s.Workers() {
		if sender, ok := w.(*Sender); ok {
			total += sender.InFlightLoss()
		}
	}
	return total
}
