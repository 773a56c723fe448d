package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/services"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// ChatHandler processes conversational turns from the voice frontend
type ChatHandler struct {
	store    storage.Store
	users    *services.UserService
	menu     *services.MenuService
	agent    *services.CafeAgent
	orders   *services.OrderService
	notifier *services.NotifyService // nil when Twilio is not configured
}

// NewChatHandler creates the chat turn handler
func NewChatHandler(store storage.Store, users *services.UserService, menu *services.MenuService, agent *services.CafeAgent, orders *services.OrderService, notifier *services.NotifyService) *ChatHandler {
	return &ChatHandler{
		store:    store,
		users:    users,
		menu:     menu,
		agent:    agent,
		orders:   orders,
		notifier: notifier,
	}
}

// HandleChat runs one turn: resolve user and session, build menu context,
// invoke the reconciler, and materialize an order when the model confirms one.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateChatRequest(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// Serialize the whole turn per phone number: session creation and the
	// cart read-modify-write race otherwise.
	unlock := h.users.LockPhone(req.PhoneNumber)
	defer unlock()

	user, isNew, err := h.users.GetOrCreateUser(req.PhoneNumber, req.Name)
	if err != nil {
		return statusError(err)
	}
	if isNew {
		log.Printf("📱 First contact from table %s: %s", req.TableID, req.PhoneNumber)
	}

	session, err := h.users.GetActiveSession(req.PhoneNumber)
	if err != nil {
		return statusError(err)
	}

	menuContext, err := h.menu.BuildContext(req.UserInput)
	if err != nil {
		return statusError(err)
	}

	pendingNote := ""
	if pending, err := h.store.GetPendingOrderByPhone(req.PhoneNumber); err == nil {
		pendingNote = fmt.Sprintf("token %s, %d items, status %s", pending.TokenNumber, len(pending.Items), pending.Status)
	}

	result, err := h.agent.Respond(c.Context(), session, user.Name, menuContext, pendingNote, req.UserInput)
	if err != nil {
		return statusError(err)
	}

	resp := models.VoiceResponse{
		VoiceText:   result.VoiceText,
		DisplayText: result.DisplayText,
		Action:      result.Action,
		Items:       result.Items,
		TableID:     req.TableID,
	}

	if result.Action == models.ActionOrderPlaced && len(result.Items) > 0 {
		order, err := h.orders.Place(session, req.PhoneNumber, req.TableID, user.Name, result.Items)
		if err != nil {
			return statusError(err)
		}

		resp.VoiceText = services.ConfirmationSpeech(user.Name, order.TotalPrice, order.TokenNumber)
		resp.DisplayText = services.ConfirmationDisplay(order.TokenNumber)
		resp.TokenNumber = order.TokenNumber

		log.Printf("🧾 Order %s placed for %s (table %s): Rs.%.2f", order.TokenNumber, req.PhoneNumber, req.TableID, order.TotalPrice)

		if h.notifier != nil {
			go func(phone, name, token string, total float64) {
				_ = h.notifier.SendOrderConfirmation(phone, name, token, total)
			}(req.PhoneNumber, user.Name, order.TokenNumber, order.TotalPrice)
		}
	}

	return c.JSON(resp)
}

func validateChatRequest(req *models.ChatRequest) error {
	var missing []string
	if strings.TrimSpace(req.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.TableID) == "" {
		missing = append(missing, "table_id")
	}
	if strings.TrimSpace(req.UserInput) == "" {
		missing = append(missing, "user_input")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", services.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// statusError maps the service error taxonomy onto HTTP statuses
func statusError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPersistence):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
