package helpers

import (
	"github.com/gofiber/fiber/v2"
)

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONError(c *fiber.Ctx, message string) error {
	return JSONFailure(c, fiber.StatusBadRequest, message, nil)
}

// JSONFailure writes the error envelope with an explicit status. data may
// carry partial information, such as the outcome of a skipped declaration.
func JSONFailure(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    data,
	})
}
