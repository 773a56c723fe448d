package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler reports service and database status for monitoring
type HealthHandler struct {
	db *gorm.DB // nil when running on the in-memory store
}

// NewHealthHandler creates the health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check is the monitoring endpoint
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK
	dbHealthy := true

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
			dbHealthy = false
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": dbHealthy,
		},
	})
}
