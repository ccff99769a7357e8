package reader

import (
	"io"
)

// BankAccountRecord is one row of the bank seed file: an account and the bank holding it
type BankAccountRecord struct {
	Index           int
	BankName        string // BANK NAME
	SwiftCode       string // SWIFT CODE
	Currency        string // CURRENCY
	Queue           string // QUEUE
	AccountName     string // ACCOUNT NAME
	StartingBalance string // STARTING BALANCE, may be empty
}

// BankAccountsReader loads raw seed rows
type BankAccountsReader interface {
	LoadBankAccounts(reader io.Reader) ([]BankAccountRecord, error)
}
