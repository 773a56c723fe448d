package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// User operations

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Session operations

func (d *DatabaseStore) GetActiveSession(phone string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := d.db.
		Where("phone_number = ? AND is_active = ?", phone, true).
		Order("last_interaction DESC").
		First(&session).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (d *DatabaseStore) CreateSession(phone string) (*models.ChatSession, error) {
	session := &models.ChatSession{
		PhoneNumber:     phone,
		IsActive:        true,
		History:         models.Conversation{},
		CartItems:       models.CartItems{},
		LastInteraction: time.Now(),
	}
	if err := d.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *DatabaseStore) UpdateSessionConversation(sessionID uint, history models.Conversation, cart models.CartItems, at time.Time) error {
	result := d.db.Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"history":          history,
			"cart_items":       cart,
			"last_interaction": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) DeactivateSessions(phone string) error {
	return d.db.Model(&models.ChatSession{}).
		Where("phone_number = ? AND is_active = ?", phone, true).
		Update("is_active", false).Error
}

func (d *DatabaseStore) GetIdleSessions(idleBefore time.Time) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	err := d.db.
		Where("is_active = ? AND last_interaction < ?", true, idleBefore).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Order operations

// PlaceOrder inserts the order and clears the session cart in one transaction,
// so a failed insert never leaves the cart half-updated.
func (d *DatabaseStore) PlaceOrder(order *models.Order, sessionID uint) (*models.Order, error) {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatSession{}).
			Where("id = ?", sessionID).
			Update("cart_items", models.CartItems{}).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseStore) GetOrderByToken(token string) (*models.Order, error) {
	var order models.Order
	if err := d.db.Where("token_number = ?", token).First(&order).Error; err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	var orders []*models.Order
	query := d.db.Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) GetPendingOrderByPhone(phone string) (*models.Order, error) {
	var order models.Order
	err := d.db.
		Where("phone_number = ? AND status = ?", phone, models.OrderStatusPending).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (d *DatabaseStore) UpdateOrderStatus(token string, status string) error {
	result := d.db.Model(&models.Order{}).
		Where("token_number = ?", token).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Menu operations

func (d *DatabaseStore) GetAvailableMenuItems() ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	err := d.db.
		Where("is_available = ?", true).
		Order("category ASC, name_en ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DatabaseStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	if err := d.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (d *DatabaseStore) SetMenuItemAvailability(id uint, available bool) error {
	result := d.db.Model(&models.MenuItem{}).
		Where("id = ?", id).
		Update("is_available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
