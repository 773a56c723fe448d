package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TurnPart is one text fragment of a conversation turn
type TurnPart struct {
	Text string `json:"text"`
}

// Turn is a single entry in the conversation history
type Turn struct {
	Role  string     `json:"role"` // "user" or "model"
	Parts []TurnPart `json:"parts"`
}

// Conversation is the ordered chat history, stored as a JSONB column
type Conversation []Turn

func (c Conversation) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Conversation) Scan(value interface{}) error {
	if value == nil {
		*c = Conversation{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into Conversation", value)
	}
}

// ChatSession stores the per-customer conversation state.
// Invariant: at most one session with IsActive=true per phone number,
// enforced by a partial unique index created at migration time.
type ChatSession struct {
	gorm.Model

	PhoneNumber     string       `json:"phone_number" gorm:"index"`
	IsActive        bool         `json:"is_active" gorm:"default:true"`
	History         Conversation `json:"history" gorm:"type:jsonb"`
	CartItems       CartItems    `json:"cart_items" gorm:"type:jsonb"`
	LastInteraction time.Time    `json:"last_interaction"`
}
