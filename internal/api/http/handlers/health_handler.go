package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aftersales-service/internal/persistence"
)

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	version  string
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(postgres *persistence.Postgres, redis *persistence.Redis, version string) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis, version: version}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready handles GET /health/ready. Redis being down degrades caching but
// does not fail readiness; the database is mandatory.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"postgres": "ok", "redis": "ok"}
	status := fiber.StatusOK

	if err := h.postgres.Ping(c.UserContext()); err != nil {
		checks["postgres"] = err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = "degraded: " + err.Error()
	}

	return c.Status(status).JSON(fiber.Map{"status": checks})
}
