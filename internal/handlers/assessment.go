package handlers

import (
	"github.com/gofiber/fiber/v2"

	"complians/internal/services"
)

// AssessmentHandler exposes the assessment pipeline
type AssessmentHandler struct {
	assessments *services.AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessments *services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Assess runs one agent against one worker
// POST /api/assessments
func (h *AssessmentHandler) Assess(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	var req services.AssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.assessments.Assess(c.Context(), tenantID, &req)
	if err != nil {
		return respondError(c, "ASSESS", err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
