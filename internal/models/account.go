package models

import (
	"log/slog"
	"math/rand/v2"
	"sync"
)

// DefaultStartingBalance is credited to accounts opened without an explicit balance
const DefaultStartingBalance = 1000

// Account holds a balance that is safe to update from several goroutines.
// The balance never goes below zero.
type Account struct {
	mu      sync.RWMutex
	name    string
	number  string
	balance int
}

// NewAccount creates an account. Negative starting balances are clamped to zero.
func NewAccount(name, number string, startingBalance int) *Account {
	if startingBalance < 0 {
		startingBalance = 0
	}
	return &Account{name: name, number: number, balance: startingBalance}
}

func (a *Account) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

func (a *Account) Number() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.number
}

func (a *Account) Balance() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// Credit adds amount to the balance. Negative amounts are refused.
func (a *Account) Credit(amount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount < 0 {
		slog.Warn("credit refused: negative amount", "account", a.number, "amount", amount)
		return
	}
	a.balance += amount
}

// Debit removes amount from the balance and reports whether it did.
// Nothing changes when amount is negative or larger than the balance.
func (a *Account) Debit(amount int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount < 0 {
		slog.Warn("debit refused: negative amount", "account", a.number, "amount", amount)
		return false
	}
	if a.balance-amount < 0 {
		return false
	}
	a.balance -= amount
	return true
}

// DebitRandom removes a uniform draw from [0, balance] and returns it.
// A zero return is possible even on a funded account.
func (a *Account) DebitRandom(rng *rand.Rand) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance == 0 {
		return 0
	}
	lost := intN(rng, a.balance+1)
	if a.balance-lost < 0 {
		lost = a.balance
	}
	a.balance -= lost
	return lost
}

// Summary returns a consistent snapshot of the account
func (a *Account) Summary() AccountSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AccountSummary{Name: a.name, Number: a.number, Balance: a.balance}
}
