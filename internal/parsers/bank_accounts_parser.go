package parser

import (
	"log/slog"
	"strconv"

	models "github.com/zdziszkee/mt103-simulator/internal/models"
	readers "github.com/zdziszkee/mt103-simulator/internal/readers"
)

type BankAccountsParser interface {
	ParseBankAccounts(records []readers.BankAccountRecord) ([]models.BankDefinition, error)
}

type DefaultBankAccountsParser struct{}

// ParseBankAccounts validates the rows and groups them by SWIFT code in
// first-seen order. Invalid rows are logged and skipped. Bank name, currency
// and queue are taken from the first valid row of each bank.
func (p DefaultBankAccountsParser) ParseBankAccounts(records []readers.BankAccountRecord) ([]models.BankDefinition, error) {
	var banks []models.BankDefinition
	index := map[string]int{}

	for _, record := range records {
		if len(record.SwiftCode) != 8 {
			slog.Warn("skipping seed row: swift code must be 8 characters", "row", record.Index, "swift_code", record.SwiftCode)
			continue
		}
		if record.BankName == "" {
			slog.Warn("skipping seed row: bank name cannot be empty", "row", record.Index)
			continue
		}
		if _, err := models.ParseCurrency(record.Currency); err != nil {
			slog.Warn("skipping seed row", "row", record.Index, "error", err)
			continue
		}
		if record.Queue == "" {
			slog.Warn("skipping seed row: queue cannot be empty", "row", record.Index)
			continue
		}
		if record.AccountName == "" {
			slog.Warn("skipping seed row: account name cannot be empty", "row", record.Index)
			continue
		}

		account := models.AccountDefinition{Name: record.AccountName}
		if record.StartingBalance != "" {
			balance, err := strconv.Atoi(record.StartingBalance)
			if err != nil {
				slog.Warn("skipping seed row: starting balance is not an integer", "row", record.Index, "value", record.StartingBalance)
				continue
			}
			account.Balance = &balance
		}

		i, ok := index[record.SwiftCode]
		if !ok {
			i = len(banks)
			index[record.SwiftCode] = i
			banks = append(banks, models.BankDefinition{
				Name:      record.BankName,
				SwiftName: record.SwiftCode,
				Currency:  record.Currency,
				Queue:     record.Queue,
			})
		}
		banks[i].Accounts = append(banks[i].Accounts, account)
	}

	return banks, nil
}
