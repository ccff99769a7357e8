package models

// AccountSummary is a point-in-time view of an account
type AccountSummary struct {
	Name    string `json:"name"`
	Number  string `json:"number"`
	Balance int    `json:"balance"`
}

// BankSummary is a point-in-time view of a bank and its accounts
type BankSummary struct {
	Name       string           `json:"name"`
	SwiftName  string           `json:"swift_name"`
	BranchCode string           `json:"branch_code"`
	Queue      string           `json:"queue"`
	Currency   string           `json:"currency"`
	Accounts   []AccountSummary `json:"accounts"`
	Total      int              `json:"total"`
}

// BankDefinition describes a bank to be built at startup
type BankDefinition struct {
	Name      string
	SwiftName string
	Currency  string
	Queue     string
	Accounts  []AccountDefinition
}

// AccountDefinition describes an account to open. A nil Balance means the default.
type AccountDefinition struct {
	Name    string
	Balance *int
}
