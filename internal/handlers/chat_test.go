package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vegcafe/cafe-voice-backend/internal/llm"
	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/services"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// scriptedProvider hands out canned replies in order
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, system string, history []llm.Message, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.replies) {
		return "", fmt.Errorf("no scripted reply for call %d", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func newChatApp(t *testing.T, provider llm.Provider) (*fiber.App, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()

	users := services.NewUserService(store)
	menu := services.NewMenuService(store)
	orders := services.NewOrderService(store)
	agent := services.NewCafeAgent(provider, store, time.Second)

	handler := NewChatHandler(store, users, menu, agent, orders, nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Post("/api/v1/chat", handler.HandleChat)
	return app, store
}

func postChat(t *testing.T, app *fiber.App, body models.ChatRequest) (int, models.VoiceResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var out models.VoiceResponse
	if resp.StatusCode == fiber.StatusOK {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestChatTurnThenOrderPlacement(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"voice_text":"Ek Paneer Tikka add kar diya!","display_text":"Added Paneer Tikka","action":"NONE",
		  "items":[{"name":"Paneer Tikka","price":250,"quantity":1}]}`,
		`{"voice_text":"Order confirm kar raha hoon.","display_text":"Confirming","action":"ORDER_PLACED",
		  "items":[{"name":"Paneer Tikka","price":250,"quantity":1},{"name":"Masala Dosa","price":120.5,"quantity":1}]}`,
	}}
	app, store := newChatApp(t, provider)

	// Turn 1: new phone number creates user and session, cart picks up ItemX
	status, resp := postChat(t, app, models.ChatRequest{
		PhoneNumber: "9876543210",
		Name:        "Asha",
		TableID:     "T7",
		UserInput:   "ek paneer tikka",
	})
	if status != fiber.StatusOK {
		t.Fatalf("turn 1 status = %d", status)
	}
	if resp.Action != models.ActionNone || len(resp.Items) != 1 || resp.Items[0].Name != "Paneer Tikka" {
		t.Fatalf("turn 1 response = %+v", resp)
	}
	if resp.TokenNumber != "" {
		t.Error("turn 1 should not carry a token")
	}

	if _, err := store.GetUserByPhone("9876543210"); err != nil {
		t.Errorf("user should exist after first turn: %v", err)
	}
	session, err := store.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("session should exist after first turn: %v", err)
	}
	if len(session.CartItems) != 1 {
		t.Errorf("persisted cart = %+v, want 1 item", session.CartItems)
	}

	// Turn 2: confirmation places the order and empties the cart
	status, resp = postChat(t, app, models.ChatRequest{
		PhoneNumber: "9876543210",
		Name:        "Asha",
		TableID:     "T7",
		UserInput:   "haan confirm karo",
	})
	if status != fiber.StatusOK {
		t.Fatalf("turn 2 status = %d", status)
	}
	if resp.Action != models.ActionOrderPlaced {
		t.Fatalf("turn 2 action = %q", resp.Action)
	}
	if !regexp.MustCompile(`^T-\d{9}$`).MatchString(resp.TokenNumber) {
		t.Errorf("token = %q, want T-<9 digits>", resp.TokenNumber)
	}

	order, err := store.GetOrderByToken(resp.TokenNumber)
	if err != nil {
		t.Fatalf("order should be stored: %v", err)
	}
	if order.TotalPrice != 370.5 {
		t.Errorf("order total = %v, want 370.5", order.TotalPrice)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("order status = %q, want Pending", order.Status)
	}

	session, err = store.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("session should stay active after placement: %v", err)
	}
	if len(session.CartItems) != 0 {
		t.Errorf("cart should be empty after placement, got %+v", session.CartItems)
	}
}

func TestChatRejectsMalformedRequest(t *testing.T) {
	app, _ := newChatApp(t, &scriptedProvider{})

	status, _ := postChat(t, app, models.ChatRequest{
		PhoneNumber: "9876543210",
		Name:        "Asha",
		TableID:     "T7",
		// user_input missing
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("missing user_input should 400, got %d", status)
	}
}

func TestChatDegradedReplyOnGarbage(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"the model rambles with no json at all"}}
	app, _ := newChatApp(t, provider)

	status, resp := postChat(t, app, models.ChatRequest{
		PhoneNumber: "9876543210",
		Name:        "Asha",
		TableID:     "T7",
		UserInput:   "hello",
	})
	if status != fiber.StatusOK {
		t.Fatalf("degraded turn should still be 200, got %d", status)
	}
	if resp.DisplayText != "Sync Error" || resp.Action != models.ActionNone {
		t.Errorf("degraded response = %+v", resp)
	}
}
