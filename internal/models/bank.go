package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	ErrBadBic     = errors.New("swift name must be 8 characters for the BIC")
	ErrNoAccounts = errors.New("bank has no accounts")
	ErrBankFrozen = errors.New("bank accounts are frozen")
)

const (
	AccountNumberLength = 20
	BranchCodeLength    = 3
	branchAlphabet      = "ABCDEFG"
)

// Bank owns a list of accounts and the codes that identify it on the network.
// Accounts are opened during setup; once Freeze is called the list is read-only
// and can be read from any goroutine without locking.
type Bank struct {
	name       string
	swiftName  string
	branchCode string
	queueName  string
	currency   Currency

	mu       sync.Mutex
	accounts []*Account
	frozen   atomic.Bool

	rng *rand.Rand
}

// NewBank creates a bank with a freshly generated branch code.
// rng may be nil to use the runtime source.
func NewBank(name, swiftName string, currency Currency, queueName string, rng *rand.Rand) (*Bank, error) {
	if len(swiftName) != 8 {
		return nil, fmt.Errorf("%w: got %q", ErrBadBic, swiftName)
	}
	return &Bank{
		name:       name,
		swiftName:  swiftName,
		branchCode: GenerateBranchCode(rng),
		queueName:  queueName,
		currency:   currency,
		rng:        rng,
	}, nil
}

func (b *Bank) Name() string { return b.name }
func (b *Bank) SwiftName() string { return b.swiftName }
func (b *Bank) BranchCode() string { return b.branchCode }
func (b *Bank) QueueName() string { return b.queueName }
func (b *Bank) DefaultCurrency() Currency { return b.currency }

// OpenAccount opens an account with DefaultStartingBalance
func (b *Bank) OpenAccount(name string) bool {
	return b.OpenAccountWithBalance(name, DefaultStartingBalance)
}

// OpenAccountWithBalance opens an account with a unique, freshly generated number.
// It returns false for an empty name or once the bank is frozen.
func (b *Bank) OpenAccountWithBalance(name string, startingBalance int) bool {
	if name == "" || b.frozen.Load() {
		return false
	}
	if startingBalance < 0 {
		startingBalance = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	number := GenerateAccountNumber(b.rng)
	for b.hasNumber(number) {
		number = GenerateAccountNumber(b.rng)
	}
	b.accounts = append(b.accounts, NewAccount(name, number, startingBalance))
	return true
}

func (b *Bank) hasNumber(number string) bool {
	for _, a := range b.accounts {
		if a.Number() == number {
			return true
		}
	}
	return false
}

// Freeze ends setup. Further OpenAccount calls fail, and so does a second Freeze.
func (b *Bank) Freeze() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen.Load() {
		return fmt.Errorf("%w: %s", ErrBankFrozen, b.swiftName)
	}
	if len(b.accounts) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAccounts, b.swiftName)
	}
	b.frozen.Store(true)
	return nil
}

func (b *Bank) Frozen() bool {
	return b.frozen.Load()
}

// Accounts returns a copy of the account list
func (b *Bank) Accounts() []*Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Account, len(b.accounts))
	copy(out, b.accounts)
	return out
}

// AccountByNumber returns nil when no account has the number
func (b *Bank) AccountByNumber(number string) *Account {
	for _, a := range b.list() {
		if a.Number() == number {
			return a
		}
	}
	return nil
}

// AccountsByName returns every account whose holder name matches exactly
func (b *Bank) AccountsByName(name string) []*Account {
	var found []*Account
	for _, a := range b.list() {
		if a.Name() == name {
			found = append(found, a)
		}
	}
	return found
}

// RandomAccount picks an account uniformly. It returns nil for a bank without accounts.
func (b *Bank) RandomAccount(rng *rand.Rand) *Account {
	accounts := b.list()
	if len(accounts) == 0 {
		return nil
	}
	return accounts[intN(rng, len(accounts))]
}

// TotalBalance sums the balances of all accounts
func (b *Bank) TotalBalance() int {
	total := 0
	for _, a := range b.list() {
		total += a.Balance()
	}
	return total
}

// Summary snapshots the bank; balances are read account by account.
func (b *Bank) Summary() BankSummary {
	accounts := b.list()
	summary := BankSummary{
		Name:       b.name,
		SwiftName:  b.swiftName,
		BranchCode: b.branchCode,
		Queue:      b.queueName,
		Currency:   b.currency.SwiftCode(),
		Accounts:   make([]AccountSummary, 0, len(accounts)),
	}
	for _, a := range accounts {
		s := a.Summary()
		summary.Accounts = append(summary.Accounts, s)
		summary.Total += s.Balance
	}
	return summary
}

// list avoids the lock once frozen, since the slice no longer changes.
func (b *Bank) list() []*Account {
	if b.frozen.Load() {
		return b.accounts
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts
}

// GenerateAccountNumber returns AccountNumberLength uniform decimal digits
func GenerateAccountNumber(rng *rand.Rand) string {
	var sb strings.Builder
	sb.Grow(AccountNumberLength)
	for range AccountNumberLength {
		sb.WriteByte(byte('0' + intN(rng, 10)))
	}
	return sb.String()
}

// GenerateBranchCode returns BranchCodeLength letters drawn from A..G
func GenerateBranchCode(rng *rand.Rand) string {
	var sb strings.Builder
	sb.Grow(BranchCodeLength)
	for range BranchCodeLength {
		sb.WriteByte(branchAlphabet[intN(rng, len(branchAlphabet))])
	}
	return sb.String()
}
