package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/services"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// KitchenHandler serves the staff dashboard: order queue and menu management
type KitchenHandler struct {
	store storage.Store
	users *services.UserService
}

// NewKitchenHandler creates the kitchen handler
func NewKitchenHandler(store storage.Store, users *services.UserService) *KitchenHandler {
	return &KitchenHandler{store: store, users: users}
}

// ListOrders returns orders, optionally filtered by ?status=
func (h *KitchenHandler) ListOrders(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !models.ValidOrderStatus(status) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	orders, err := h.store.GetOrdersByStatus(status)
	if err != nil {
		return statusError(err)
	}
	return c.JSON(fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

type orderStatusUpdate struct {
	Status string `json:"status"`
}

// UpdateOrderStatus transitions an order. Marking an order Served flushes the
// customer's session so their next visit starts a fresh conversation.
func (h *KitchenHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	token := c.Params("token")

	var payload orderStatusUpdate
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !models.ValidOrderStatus(payload.Status) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	order, err := h.store.GetOrderByToken(token)
	if err != nil {
		return statusError(err)
	}

	if err := h.store.UpdateOrderStatus(token, payload.Status); err != nil {
		return statusError(err)
	}
	log.Printf("🍽️  Order %s → %s", token, payload.Status)

	if payload.Status == models.OrderStatusServed {
		if err := h.users.FlushSession(order.PhoneNumber); err != nil {
			log.Printf("⚠️  Could not flush session for %s: %v", order.PhoneNumber, err)
		}
	}

	return c.JSON(fiber.Map{
		"token_number": token,
		"status":       payload.Status,
	})
}

// CreateMenuItem adds a dish to the menu
func (h *KitchenHandler) CreateMenuItem(c *fiber.Ctx) error {
	var input models.MenuItemInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(input.NameEn) == "" || input.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "name_en and a positive price are required")
	}

	item, err := h.store.CreateMenuItem(&models.MenuItem{
		NameEn:      input.NameEn,
		NameHi:      input.NameHi,
		Price:       input.Price,
		IsAvailable: true,
		Description: input.Description,
		DietaryTags: input.DietaryTags,
		Category:    input.Category,
	})
	if err != nil {
		return statusError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

type availabilityUpdate struct {
	IsAvailable bool `json:"is_available"`
}

// SetMenuItemAvailability toggles whether a dish is offered to customers
func (h *KitchenHandler) SetMenuItemAvailability(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item id")
	}

	var payload availabilityUpdate
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.store.SetMenuItemAvailability(uint(id), payload.IsAvailable); err != nil {
		return statusError(err)
	}
	return c.JSON(fiber.Map{
		"id":           id,
		"is_available": payload.IsAvailable,
	})
}
