package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/zdziszkee/mt103-simulator/internal/api/middleware"
	service "github.com/zdziszkee/mt103-simulator/internal/services"
)

// SimulationHandler serves the read-only status API
type SimulationHandler struct {
	service service.SimulationService
}

// NewSimulationHandler creates a new handler instance
func NewSimulationHandler(service service.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

func (h *SimulationHandler) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// GetBanks lists every bank with its accounts
func (h *SimulationHandler) GetBanks(c fiber.Ctx) error {
	banks, err := h.service.GetBanks(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(banks)
}

// GetBank returns one bank by its 8-character SWIFT code
func (h *SimulationHandler) GetBank(c fiber.Ctx) error {
	code := c.Params("swiftCode")

	bank, err := h.service.GetBank(c.Context(), code)
	if err != nil {
		middleware.Logger(c).Info("bank lookup failed", "swift_code", code, "error", err)
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(bank)
}

func (h *SimulationHandler) GetWorkers(c fiber.Ctx) error {
	statuses, err := h.service.GetWorkers(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(statuses)
}

func (h *SimulationHandler) GetTotals(c fiber.Ctx) error {
	totals, err := h.service.GetTotals(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(totals)
}

func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Bank not found",
		})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "SWIFT code must be 8 characters",
		})
	default:
		middleware.Logger(c).Error("request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}
