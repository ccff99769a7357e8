package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	readers "github.com/zdziszkee/mt103-simulator/internal/readers"
)

type CSVBankAccountsReader struct {
}

const expectedHeader = "BANK NAME,SWIFT CODE,CURRENCY,QUEUE,ACCOUNT NAME,STARTING BALANCE"

func (c *CSVBankAccountsReader) LoadBankAccounts(reader io.Reader) ([]readers.BankAccountRecord, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.ReuseRecord = true
	csvReader.Comment = '#'

	header, err := csvReader.Read()
	if err != nil {
		if err == io.EOF {
			return []readers.BankAccountRecord{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	expectedHeaders := strings.Split(expectedHeader, ",")
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, col := range header {
		// case-insensitive, space-trimmed
		if strings.TrimSpace(strings.ToUpper(col)) != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid header: expected '%s' at index %d, got '%s'", expectedHeaders[i], i, col)
		}
	}

	records := []readers.BankAccountRecord{}
	rowNum := 1
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		if len(row) != len(expectedHeaders) {
			return nil, fmt.Errorf("row %d: invalid length", rowNum)
		}

		records = append(records, readers.BankAccountRecord{
			Index:           rowNum,
			BankName:        strings.TrimSpace(row[0]),
			SwiftCode:       strings.ToUpper(strings.TrimSpace(row[1])),
			Currency:        strings.TrimSpace(row[2]),
			Queue:           strings.TrimSpace(row[3]),
			AccountName:     strings.TrimSpace(row[4]),
			StartingBalance: strings.TrimSpace(row[5]),
		})
		rowNum++
	}

	return records, nil
}
