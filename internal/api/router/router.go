package router

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	handler "github.com/zdziszkee/mt103-simulator/internal/api/handlers"
	"github.com/zdziszkee/mt103-simulator/internal/api/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(appName string, logger *slog.Logger, h *handler.SimulationHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: appName,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"message": message,
			})
		},
	})

	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New())

	v1 := app.Group("/v1")
	v1.Get("/health", h.Health)
	v1.Get("/banks", h.GetBanks)
	v1.Get("/banks/:swiftCode", h.GetBank)
	v1.Get("/workers", h.GetWorkers)
	v1.Get("/totals", h.GetTotals)
	return app
}
