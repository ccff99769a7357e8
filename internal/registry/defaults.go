package registry

import "github.com/zdziszkee/mt103-simulator/internal/models"

// DefaultDefinitions is the three-bank network used when nothing else is configured
func DefaultDefinitions() []models.BankDefinition {
	return []models.BankDefinition{
		{
			Name: "BankOfRob", SwiftName: "BANKROBE", Currency: "GBP", Queue: "BANKROB.Q",
			Accounts: accounts("Rob Parker", "Jimbo Blooms", "Dwayne Johnson", "Richard Liesen"),
		},
		{
			Name: "BankOfGraham", SwiftName: "BANKGRAH", Currency: "GBP", Queue: "BANKGRA.Q",
			Accounts: accounts("Harry Houdini", "Margret Allens", "Alice Baker", "Sherlock Holmes"),
		},
		{
			Name: "BankOfNick", SwiftName: "BANKNICK", Currency: "GBP", Queue: "BANKNICK.Q",
			Accounts: accounts("David Ware", "Amanda Maidstone", "Paul Norfolk", "Charlie Chesire"),
		},
	}
}

func accounts(names ...string) []models.AccountDefinition {
	out := make([]models.AccountDefinition, len(names))
	for i, n := range names {
		out[i] = models.AccountDefinition{Name: n}
	}
	return out
}
