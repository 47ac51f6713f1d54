package handlers

import (
	"github.com/gofiber/fiber/v2"

	"complians/internal/models"
	"complians/internal/services"
)

// AlertHandler serves the alert feed and its read/dismiss state machine
type AlertHandler struct {
	alerts *services.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// Create raises a manual alert
// POST /api/alerts
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	var req models.CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	alert, err := h.alerts.Create(c.Context(), tenantID, &req)
	if err != nil {
		return respondError(c, "ALERT", err)
	}

	return c.Status(fiber.StatusCreated).JSON(alert)
}

// List returns the tenant's alerts, newest first
// GET /api/alerts?status=&limit=
func (h *AlertHandler) List(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	status := models.AlertStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown alert status",
		})
	}

	alerts, err := h.alerts.List(c.Context(), tenantID, status, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, "ALERT", err)
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	return c.JSON(fiber.Map{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// UpdateStatus moves an alert through Unread -> Read -> Dismissed
// PUT /api/alerts/:id
func (h *AlertHandler) UpdateStatus(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	var req struct {
		Status models.AlertStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !req.Status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown alert status",
		})
	}

	alert, err := h.alerts.UpdateStatus(c.Context(), tenantID, c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, "ALERT", err)
	}

	return c.JSON(alert)
}
