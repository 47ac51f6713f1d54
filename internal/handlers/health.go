package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"complians/internal/agents"
	"complians/internal/database"
	"complians/internal/services"
)

// HealthHandler reports dependency health for load balancers and ops
type HealthHandler struct {
	db       *database.DB
	mongo    *database.MongoDB
	registry *agents.Registry
	ai       *services.AIClient
	cache    *services.NarrativeCache
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, mongo *database.MongoDB, registry *agents.Registry, ai *services.AIClient, cache *services.NarrativeCache) *HealthHandler {
	return &HealthHandler{
		db:       db,
		mongo:    mongo,
		registry: registry,
		ai:       ai,
		cache:    cache,
	}
}

// Check pings every dependency. Degraded dependencies flip the status but
// the endpoint still answers 200 unless core storage is down.
// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := fiber.StatusOK
	checks := fiber.Map{}

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "down: " + err.Error()
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if err := h.mongo.Ping(ctx); err != nil {
		checks["mongodb"] = "down: " + err.Error()
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	} else {
		checks["mongodb"] = "ok"
	}

	redis := services.GetRedisService()
	if redis == nil {
		checks["redis"] = "not configured"
	} else if err := redis.Ping(ctx); err != nil {
		checks["redis"] = "down: " + err.Error()
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["redis"] = "ok"
	}

	if h.ai.Configured() {
		checks["ai_provider"] = "configured"
	} else {
		checks["ai_provider"] = "not configured (template fallback only)"
	}

	hits, misses := h.cache.Stats()

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"agents":    h.registry.Count(),
		"cacheHits": hits,
		"cacheMiss": misses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
