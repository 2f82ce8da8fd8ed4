package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Health reports whether the database answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.UserContext()); err != nil {
		h.log.Error.Error("Health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
