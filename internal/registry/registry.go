// Package registry builds the set of banks taking part in a simulation and
// hands out stable handles to them, so workers can refer to peer banks
// without holding on to them directly.
package registry

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/zdziszkee/mt103-simulator/internal/models"
)

var (
	ErrDuplicateBank = errors.New("duplicate bank")
	ErrUnknownBank   = errors.New("unknown bank")
)

// Handle identifies a bank within its Registry
type Handle int

// Registry owns the frozen banks of a simulation
type Registry struct {
	banks   []*models.Bank
	bySwift map[string]Handle
}

// New builds and freezes one bank per definition. Accounts without an
// explicit balance start with startingBalance. rng may be nil.
func New(defs []models.BankDefinition, startingBalance int, rng *rand.Rand) (*Registry, error) {
	r := &Registry{bySwift: make(map[string]Handle, len(defs))}
	queues := make(map[string]string, len(defs))

	for _, def := range defs {
		currency, err := models.ParseCurrency(def.Currency)
		if err != nil {
			return nil, fmt.Errorf("bank %s: %w", def.Name, err)
		}
		bank, err := models.NewBank(def.Name, def.SwiftName, currency, def.Queue, rng)
		if err != nil {
			return nil, fmt.Errorf("bank %s: %w", def.Name, err)
		}
		if _, ok := r.bySwift[def.SwiftName]; ok {
			return nil, fmt.Errorf("%w: swift name %s", ErrDuplicateBank, def.SwiftName)
		}
		if owner, ok := queues[def.Queue]; ok {
			return nil, fmt.Errorf("%w: queue %s used by %s and %s", ErrDuplicateBank, def.Queue, owner, def.SwiftName)
		}

		for _, acc := range def.Accounts {
			balance := startingBalance
			if acc.Balance != nil {
				balance = *acc.Balance
			}
			if !bank.OpenAccountWithBalance(acc.Name, balance) {
				return nil, fmt.Errorf("bank %s: cannot open account %q", def.SwiftName, acc.Name)
			}
		}
		if err := bank.Freeze(); err != nil {
			return nil, err
		}

		r.bySwift[def.SwiftName] = Handle(len(r.banks))
		queues[def.Queue] = def.SwiftName
		r.banks = append(r.banks, bank)
	}

	return r, nil
}

func (r *Registry) Len() int {
	return len(r.banks)
}

// Valid reports whether h refers to a bank of this registry
func (r *Registry) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(r.banks)
}

// Bank returns the bank behind h, or nil for an invalid handle
func (r *Registry) Bank(h Handle) *models.Bank {
	if !r.Valid(h) {
		return nil
	}
	return r.banks[h]
}

// Lookup finds a bank by its 8-character SWIFT name
func (r *Registry) Lookup(swiftName string) (Handle, error) {
	h, ok := r.bySwift[swiftName]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownBank, swiftName)
	}
	return h, nil
}

// Handles lists every handle in construction order
func (r *Registry) Handles() []Handle {
	out := make([]Handle, len(r.banks))
	for i := range r.banks {
		out[i] = Handle(i)
	}
	return out
}

// Peers lists every handle except h
func (r *Registry) Peers(h Handle) []Handle {
	out := make([]Handle, 0, len(r.banks))
	for i := range r.banks {
		if Handle(i) != h {
			out = append(out, Handle(i))
		}
	}
	return out
}

// Banks returns the banks in construction order
func (r *Registry) Banks() []*models.Bank {
	out := make([]*models.Bank, len(r.banks))
	copy(out, r.banks)
	return out
}

// TotalBalance sums every account of every bank
func (r *Registry) TotalBalance() int {
	total := 0
	for _, b := range r.banks {
		total += b.TotalBalance()
	}
	return total
}

func (r *Registry) Summaries() []models.BankSummary {
	out := make([]models.BankSummary, 0, len(r.banks))
	for _, b := range r.banks {
		out = append(out, b.Summary())
	}
	return out
}
