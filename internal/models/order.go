package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// CartItem is one line of a customer's cart or order
type CartItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CartItems is a JSONB-persisted list of cart lines
type CartItems []CartItem

func (ci CartItems) Value() (driver.Value, error) {
	if ci == nil {
		return "[]", nil
	}
	b, err := json.Marshal(ci)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (ci *CartItems) Scan(value interface{}) error {
	if value == nil {
		*ci = CartItems{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, ci)
	case string:
		return json.Unmarshal([]byte(v), ci)
	default:
		return fmt.Errorf("cannot scan %T into CartItems", value)
	}
}

// Order is a confirmed placement, immutable except for status transitions
type Order struct {
	gorm.Model

	TokenNumber string    `json:"token_number" gorm:"uniqueIndex"`
	PhoneNumber string    `json:"phone_number" gorm:"index"`
	TableID     string    `json:"table_id"`
	Name        string    `json:"name"`
	Items       CartItems `json:"items" gorm:"type:jsonb"` // snapshot at confirmation time
	TotalPrice  float64   `json:"total_price"`
	Status      string    `json:"status" gorm:"default:Pending"`
}

// Order status constants
const (
	OrderStatusPending   = "Pending"
	OrderStatusPreparing = "Preparing"
	OrderStatusServed    = "Served"
	OrderStatusCancelled = "Cancelled"
)

// ValidOrderStatus reports whether s is a known kitchen status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusServed, OrderStatusCancelled:
		return true
	}
	return false
}
