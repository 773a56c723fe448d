package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
)

// MemoryStore holds all data in memory for local development and tests
type MemoryStore struct {
	users    map[string]*models.User // keyed by phone
	sessions map[uint]*models.ChatSession
	orders   map[string]*models.Order // keyed by token
	menu     map[uint]*models.MenuItem

	// Mutexes for thread safety
	userMu    sync.RWMutex
	sessionMu sync.RWMutex
	orderMu   sync.RWMutex
	menuMu    sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	sessionCounter uint
	orderCounter   uint
	menuCounter    uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		sessions: make(map[uint]*models.ChatSession),
		orders:   make(map[string]*models.Order),
		menu:     make(map[uint]*models.MenuItem),
	}
}

// User operations

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.PhoneNumber]; exists {
		return nil, fmt.Errorf("user %s already exists", user.PhoneNumber)
	}

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.PhoneNumber] = user
	return user, nil
}

// Session operations

func (m *MemoryStore) GetActiveSession(phone string) (*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var latest *models.ChatSession
	for _, s := range m.sessions {
		if s.PhoneNumber != phone || !s.IsActive {
			continue
		}
		if latest == nil || s.LastInteraction.After(latest.LastInteraction) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) CreateSession(phone string) (*models.ChatSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	// Mirror the partial unique index on (phone_number) WHERE is_active
	for _, s := range m.sessions {
		if s.PhoneNumber == phone && s.IsActive {
			return nil, fmt.Errorf("active session already exists for %s", phone)
		}
	}

	m.sessionCounter++
	session := &models.ChatSession{
		PhoneNumber:     phone,
		IsActive:        true,
		History:         models.Conversation{},
		CartItems:       models.CartItems{},
		LastInteraction: time.Now(),
	}
	session.ID = m.sessionCounter
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	m.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (m *MemoryStore) UpdateSessionConversation(sessionID uint, history models.Conversation, cart models.CartItems, at time.Time) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return ErrNotFound
	}

	session.History = history
	session.CartItems = cart
	session.LastInteraction = at
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeactivateSessions(phone string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for _, s := range m.sessions {
		if s.PhoneNumber == phone && s.IsActive {
			s.IsActive = false
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *MemoryStore) GetIdleSessions(idleBefore time.Time) ([]*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var idle []*models.ChatSession
	for _, s := range m.sessions {
		if s.IsActive && s.LastInteraction.Before(idleBefore) {
			copied := *s
			idle = append(idle, &copied)
		}
	}
	return idle, nil
}

// Order operations

// PlaceOrder inserts the order and clears the session cart as one unit,
// matching the transactional behavior of the database store.
func (m *MemoryStore) PlaceOrder(order *models.Order, sessionID uint) (*models.Order, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, exists := m.orders[order.TokenNumber]; exists {
		return nil, fmt.Errorf("duplicate order token %s", order.TokenNumber)
	}

	m.sessionMu.Lock()
	session, sessionExists := m.sessions[sessionID]
	if !sessionExists {
		m.sessionMu.Unlock()
		return nil, ErrNotFound
	}

	m.orderCounter++
	order.ID = m.orderCounter
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	m.orders[order.TokenNumber] = order

	session.CartItems = models.CartItems{}
	session.UpdatedAt = time.Now()
	m.sessionMu.Unlock()

	return order, nil
}

func (m *MemoryStore) GetOrderByToken(token string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[token]
	if !exists {
		return nil, ErrNotFound
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var orders []*models.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *MemoryStore) GetPendingOrderByPhone(phone string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	for _, o := range m.orders {
		if o.PhoneNumber == phone && o.Status == models.OrderStatusPending {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateOrderStatus(token string, status string) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[token]
	if !exists {
		return ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

// Menu operations

func (m *MemoryStore) GetAvailableMenuItems() ([]*models.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	var items []*models.MenuItem
	for _, item := range m.menu {
		if item.IsAvailable {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()

	m.menuCounter++
	item.ID = m.menuCounter
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	m.menu[item.ID] = item
	return item, nil
}

func (m *MemoryStore) SetMenuItemAvailability(id uint, available bool) error {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()

	item, exists := m.menu[id]
	if !exists {
		return ErrNotFound
	}
	item.IsAvailable = available
	item.UpdatedAt = time.Now()
	return nil
}
