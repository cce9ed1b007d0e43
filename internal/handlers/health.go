package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

// Health reports service liveness
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": utils.Now(),
	})
}
