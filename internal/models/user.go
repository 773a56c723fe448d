package models

import "gorm.io/gorm"

// User represents a café customer identified by phone number
type User struct {
	gorm.Model

	PhoneNumber string `json:"phone_number" gorm:"uniqueIndex"`
	Name        string `json:"name"` // set on first contact, never overwritten
}
