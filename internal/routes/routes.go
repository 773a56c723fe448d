package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vegcafe/cafe-voice-backend/internal/config"
	"github.com/vegcafe/cafe-voice-backend/internal/handlers"
	"github.com/vegcafe/cafe-voice-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, chat *handlers.ChatHandler, kitchen *handlers.KitchenHandler, staff *handlers.StaffHandler, health *handlers.HealthHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Cafe AI Server is Live",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":  "/health",
				"chat":    "/api/v1/chat",
				"kitchen": "/api/v1/kitchen",
			},
		})
	})

	app.Get("/health", health.Check)

	api := app.Group("/api/v1")

	// Customer-facing chat endpoint (the single conversational turn operation)
	api.Post("/chat", chat.HandleChat)

	// Staff login
	api.Post("/staff/login", staff.Login)

	// Kitchen dashboard, JWT-protected
	kitchenGroup := api.Group("/kitchen", middleware.StaffAuth(cfg))
	kitchenGroup.Get("/orders", kitchen.ListOrders)
	kitchenGroup.Patch("/orders/:token", kitchen.UpdateOrderStatus)
	kitchenGroup.Post("/menu", kitchen.CreateMenuItem)
	kitchenGroup.Patch("/menu/:id/availability", kitchen.SetMenuItemAvailability)
}
