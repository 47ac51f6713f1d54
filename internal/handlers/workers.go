package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"complians/internal/models"
	"complians/internal/services"
)

// WorkerHandler serves HR intake plus the compliance directory and the
// per-worker drill-down endpoints
type WorkerHandler struct {
	workers    *services.WorkerService
	directory  *services.DirectoryService
	aggregator *services.AggregatorService
	store      *services.ComplianceStore
	export     *services.ExportService
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(workers *services.WorkerService, directory *services.DirectoryService, aggregator *services.AggregatorService, store *services.ComplianceStore, export *services.ExportService) *WorkerHandler {
	return &WorkerHandler{
		workers:    workers,
		directory:  directory,
		aggregator: aggregator,
		store:      store,
		export:     export,
	}
}

// Create registers a sponsored worker
// POST /api/workers
func (h *WorkerHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	var req models.CreateWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	worker, err := h.workers.Create(c.Context(), tenantID, &req)
	if err != nil {
		return respondError(c, "WORKER", err)
	}

	return c.Status(fiber.StatusCreated).JSON(worker)
}

// List serves the filtered, paginated compliance directory
// GET /api/workers
func (h *WorkerHandler) List(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	filter, err := parseDirectoryFilter(c)
	if err != nil {
		return respondError(c, "DIRECTORY", err)
	}

	page, err := h.directory.Query(c.Context(), tenantID, filter)
	if err != nil {
		return respondError(c, "DIRECTORY", err)
	}

	return c.JSON(page)
}

// Export downloads the filtered directory as an XLSX workbook
// GET /api/workers/export
func (h *WorkerHandler) Export(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	filter, err := parseDirectoryFilter(c)
	if err != nil {
		return respondError(c, "EXPORT", err)
	}

	buf, err := h.export.ExportXLSX(c.Context(), tenantID, filter)
	if err != nil {
		return respondError(c, "EXPORT", err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+services.ExportFilename()+`"`)
	return c.Send(buf.Bytes())
}

// Get returns one worker
// GET /api/workers/:id
func (h *WorkerHandler) Get(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)

	worker, err := h.workers.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, "WORKER", err)
	}

	return c.JSON(worker)
}

// GetAggregate returns the worker's aggregate snapshot
// GET /api/workers/:id/aggregate
func (h *WorkerHandler) GetAggregate(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)
	workerID := c.Params("id")

	// Ownership check before touching the snapshot table
	if _, err := h.workers.Get(c.Context(), tenantID, workerID); err != nil {
		return respondError(c, "AGGREGATE", err)
	}

	agg, err := h.aggregator.GetSnapshot(c.Context(), workerID)
	if err != nil {
		return respondError(c, "AGGREGATE", err)
	}
	if agg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Worker has not been assessed yet",
		})
	}

	return c.JSON(agg)
}

// GetRecords returns the worker's per-agent compliance records
// GET /api/workers/:id/records
func (h *WorkerHandler) GetRecords(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(string)
	workerID := c.Params("id")

	if _, err := h.workers.Get(c.Context(), tenantID, workerID); err != nil {
		return respondError(c, "RECORDS", err)
	}

	records, err := h.store.ListByWorker(c.Context(), workerID)
	if err != nil {
		return respondError(c, "RECORDS", err)
	}
	if records == nil {
		records = []models.AgentComplianceRecord{}
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}

func parseDirectoryFilter(c *fiber.Ctx) (*services.DirectoryFilter, error) {
	filter := &services.DirectoryFilter{
		ComplianceStatus: models.ComplianceStatus(c.Query("complianceStatus")),
		RiskLevel:        models.RiskLevel(c.Query("riskLevel")),
		AgentType:        c.Query("agentType"),
		Page:             c.QueryInt("page", 1),
		PageSize:         c.QueryInt("pageSize", 20),
	}

	if raw := c.Query("hasRedFlags"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, models.NewValidationError("hasRedFlags", "must be true or false")
		}
		filter.HasRedFlags = &v
	}

	if raw := c.Query("createdFrom"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, models.NewValidationError("createdFrom", "must be YYYY-MM-DD")
		}
		filter.CreatedFrom = t
	}
	if raw := c.Query("createdTo"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, models.NewValidationError("createdTo", "must be YYYY-MM-DD")
		}
		// Inclusive end date
		filter.CreatedTo = t.AddDate(0, 0, 1)
	}

	return filter, nil
}
