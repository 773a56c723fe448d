package storage

import (
	"errors"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
)

// ErrNotFound is returned when a record is missing so handlers can respond with 404.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for storage operations
type Store interface {
	// User operations
	GetUserByPhone(phone string) (*models.User, error)
	CreateUser(user *models.User) (*models.User, error)

	// Session operations
	GetActiveSession(phone string) (*models.ChatSession, error)
	CreateSession(phone string) (*models.ChatSession, error)
	UpdateSessionConversation(sessionID uint, history models.Conversation, cart models.CartItems, at time.Time) error
	DeactivateSessions(phone string) error
	GetIdleSessions(idleBefore time.Time) ([]*models.ChatSession, error)

	// Order operations
	PlaceOrder(order *models.Order, sessionID uint) (*models.Order, error)
	GetOrderByToken(token string) (*models.Order, error)
	GetOrdersByStatus(status string) ([]*models.Order, error)
	GetPendingOrderByPhone(phone string) (*models.Order, error)
	UpdateOrderStatus(token string, status string) error

	// Menu operations
	GetAvailableMenuItems() ([]*models.MenuItem, error)
	CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error)
	SetMenuItemAvailability(id uint, available bool) error
}
