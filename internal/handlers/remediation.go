package handlers

import (
	"github.com/gofiber/fiber/v2"

	"complians/internal/models"
	"complians/internal/services"
)

// RemediationHandler manages remediation actions against flagged records
type RemediationHandler struct {
	remediation *services.RemediationService
}

// NewRemediationHandler creates a new remediation handler
func NewRemediationHandler(remediation *services.RemediationService) *RemediationHandler {
	return &RemediationHandler{remediation: remediation}
}

// Create opens a remediation action
// POST /api/remediation-actions
func (h *RemediationHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)
	userID := c.Locals("user_id").(string)

	var req models.CreateActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	action, err := h.remediation.Create(c.Context(), tenantID, userID, &req)
	if err != nil {
		return respondError(c, "REMEDIATION", err)
	}

	return c.Status(fiber.StatusCreated).JSON(action)
}

// List returns the tenant's remediation actions, optionally for one worker
// GET /api/remediation-actions?workerId=
func (h *RemediationHandler) List(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	actions, err := h.remediation.List(c.Context(), tenantID, c.Query("workerId"))
	if err != nil {
		return respondError(c, "REMEDIATION", err)
	}
	if actions == nil {
		actions = []models.RemediationAction{}
	}

	return c.JSON(fiber.Map{
		"actions": actions,
		"count":   len(actions),
	})
}

// Update applies a partial update, enforcing the forward-only status machine
// PUT /api/remediation-actions/:id
func (h *RemediationHandler) Update(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	var req models.UpdateActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	action, err := h.remediation.Update(c.Context(), tenantID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, "REMEDIATION", err)
	}

	return c.JSON(action)
}

// Delete removes an action. Only its creator may delete it.
// DELETE /api/remediation-actions/:id
func (h *RemediationHandler) Delete(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)
	userID := c.Locals("user_id").(string)

	if err := h.remediation.Delete(c.Context(), tenantID, userID, c.Params("id")); err != nil {
		return respondError(c, "REMEDIATION", err)
	}

	return c.JSON(fiber.Map{
		"message": "Remediation action deleted successfully",
	})
}
