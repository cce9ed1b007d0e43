package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/humpydonkey/patient-appointment-management/internal/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, chat *handlers.ChatHandler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Patient Appointment Management Assistant",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health": "/health",
				"chat":   "/chat",
			},
		})
	})

	app.Get("/health", handlers.Health)
	app.Post("/chat", chat.Chat)

	// Dev-only helpers for driving the assistant locally
	dev := app.Group("/dev")
	dev.Post("/reset_session", chat.ResetSession)
	dev.Get("/state", chat.SessionState)
}
