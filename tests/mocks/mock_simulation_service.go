package mocks

import (
	"context"

	models "github.com/zdziszkee/mt103-simulator/internal/models"
	service "github.com/zdziszkee/mt103-simulator/internal/services"
	"github.com/zdziszkee/mt103-simulator/internal/workers"
)

// MockSimulationService implements service.SimulationService.
type MockSimulationService struct {
	GetBanksFunc   func(ctx context.Context) ([]models.BankSummary, error)
	GetBankFunc    func(ctx context.Context, swiftCode string) (*models.BankSummary, error)
	GetWorkersFunc func(ctx context.Context) ([]workers.Status, error)
	GetTotalsFunc  func(ctx context.Context) (*service.Totals, error)
}

func (m *MockSimulationService) GetBanks(ctx context.Context) ([]models.BankSummary, error) {
	return m.GetBanksFunc(ctx)
}

func (m *MockSimulationService) GetBank(ctx context.Context, swiftCode string) (*models.BankSummary, error) {
	return m.GetBankFunc(ctx, swiftCode)
}

func (m *MockSimulationService) GetWorkers(ctx context.Context) ([]workers.Status, error) {
	return m.GetWorkersFunc(ctx)
}

func (m *MockSimulationService) GetTotals(ctx context.Context) (*service.Totals, error) {
	return m.GetTotalsFunc(ctx)
}
