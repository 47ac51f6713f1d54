package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"complians/internal/models"
)

// respondError maps the service layer's typed errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500 without leaking the
// underlying error to the client.
func respondError(c *fiber.Ctx, tag string, err error) error {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Error(),
			"field": validation.Field,
		})
	}

	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound.Error(),
		})
	}

	var transition *models.StateTransitionError
	if errors.As(err, &transition) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": transition.Error(),
		})
	}

	var provider *models.ProviderError
	if errors.As(err, &provider) {
		log.Printf("❌ [%s] Provider failure: %v", tag, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Narrative provider unavailable",
		})
	}

	log.Printf("❌ [%s] %v", tag, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
