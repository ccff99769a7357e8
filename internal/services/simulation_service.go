package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	models "github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/registry"
	"github.com/zdziszkee/mt103-simulator/internal/workers"
)

var (
	ErrNotFound     = errors.New("bank not found")
	ErrInvalidInput = errors.New("invalid input provided")
)

// 8-character BIC as used in MT103 headers
var swiftCodeRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Totals summarises the whole network
type Totals struct {
	Banks         int   `json:"banks"`
	TotalBalance  int   `json:"total_balance"`
	InFlightLoss  int64 `json:"in_flight_loss"`
	ActiveWorkers int   `json:"active_workers"`
}

// WorkerSource is what the service needs from the supervisor
type WorkerSource interface {
	Statuses() []workers.Status
	InFlightLoss() int64
	Active() int
}

// SimulationService exposes read-only views of a running simulation
type SimulationService interface {
	GetBanks(ctx context.Context) ([]models.BankSummary, error)
	GetBank(ctx context.Context, swiftCode string) (*models.BankSummary, error)
	GetWorkers(ctx context.Context) ([]workers.Status, error)
	GetTotals(ctx context.Context) (*Totals, error)
}

type simulationService struct {
	registry *registry.Registry
	workers  WorkerSource
}

// NewSimulationService creates a service over the bank registry and the worker supervisor
func NewSimulationService(reg *registry.Registry, workers WorkerSource) SimulationService {
	return &simulationService{registry: reg, workers: workers}
}

func (s *simulationService) GetBanks(ctx context.Context) ([]models.BankSummary, error) {
	return s.registry.Summaries(), nil
}

// GetBank looks a bank up by its SWIFT code, case-insensitively
func (s *simulationService) GetBank(ctx context.Context, swiftCode string) (*models.BankSummary, error) {
	code := strings.ToUpper(swiftCode)
	if !swiftCodeRegex.MatchString(code) {
		slog.Debug("invalid swift code", "code", swiftCode)
		return nil, ErrInvalidInput
	}

	h, err := s.registry.Lookup(code)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownBank) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	summary := s.registry.Bank(h).Summary()
	return &summary, nil
}

func (s *simulationService) GetWorkers(ctx context.Context) ([]workers.Status, error) {
	return s.workers.Statuses(), nil
}

func (s *simulationService) GetTotals(ctx context.Context) (*Totals, error) {
	return &Totals{
		Banks:         s.registry.Len(),
		TotalBalance:  s.registry.TotalBalance(),
		InFlightLoss:  s.workers.InFlightLoss(),
		ActiveWorkers: s.workers.Active(),
	}, nil
}
