package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// OrderService materializes a confirmed cart into a durable order and resets
// the session cart.
type OrderService struct {
	store storage.Store
}

// NewOrderService creates the order materializer
func NewOrderService(store storage.Store) *OrderService {
	return &OrderService{store: store}
}

// GenerateToken builds the human-readable order token:
// "T-" + last 3 digits of the phone + MMSS of the clock + 2-digit random suffix.
// Practically unique, not guaranteed unique: two placements in the same
// minute:second for the same phone differ only in the random suffix. The
// orders table carries a unique index on token_number, so the rare collision
// surfaces as a persistence failure instead of a silent duplicate.
func GenerateToken(phone string, at time.Time, suffix int) string {
	last3 := phone
	if len(phone) > 3 {
		last3 = phone[len(phone)-3:]
	}
	return fmt.Sprintf("T-%s%s%02d", last3, at.Format("0405"), suffix)
}

// OrderTotal sums price*quantity over the confirmed items. Quantities below 1
// count as 1; prices arrive already coerced by cart normalization.
func OrderTotal(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}
	return total
}

// Place commits the confirmed cart as a Pending order and clears the session
// cart in the same store transaction. The session stays active for further
// conversation.
func (s *OrderService) Place(session *models.ChatSession, phone, tableID, name string, items []models.CartItem) (*models.Order, error) {
	order := &models.Order{
		TokenNumber: GenerateToken(phone, time.Now(), 10+rand.Intn(90)),
		PhoneNumber: phone,
		TableID:     tableID,
		Name:        name,
		Items:       models.CartItems(items),
		TotalPrice:  OrderTotal(items),
		Status:      models.OrderStatusPending,
	}

	placed, err := s.store.PlaceOrder(order, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: placing order %s: %v", ErrPersistence, order.TokenNumber, err)
	}
	session.CartItems = models.CartItems{}

	return placed, nil
}

// ConfirmationSpeech builds the spoken confirmation. The token is spelled out
// character by character so TTS engines do not read it as one word.
func ConfirmationSpeech(name string, total float64, token string) string {
	spelled := strings.Join(strings.Split(token, ""), ", ")
	return fmt.Sprintf(
		"Thank you %s. Your order is confirmed. Your total bill is %s rupees. Please note your token number. %s.",
		name, formatAmount(total), spelled)
}

// ConfirmationDisplay builds the on-screen confirmation line
func ConfirmationDisplay(token string) string {
	return fmt.Sprintf("Order Placed! Token: #%s", token)
}

func formatAmount(total float64) string {
	return strconv.FormatFloat(total, 'f', -1, 64)
}
