package models

import "gorm.io/gorm"

// MenuItem is a dish on the café menu, read-only to the conversation core
type MenuItem struct {
	gorm.Model

	NameEn      string  `json:"name_en"`
	NameHi      string  `json:"name_hi"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available" gorm:"default:true"`
	Description string  `json:"description"`
	DietaryTags string  `json:"dietary_tags"` // comma-separated, e.g. "vegan,gluten-free"
	Category    string  `json:"category"`
}

// MenuItemInput is the staff-facing payload for creating menu items
type MenuItemInput struct {
	NameEn      string  `json:"name_en" validate:"required"`
	NameHi      string  `json:"name_hi"`
	Price       float64 `json:"price" validate:"required"`
	Description string  `json:"description"`
	DietaryTags string  `json:"dietary_tags"`
	Category    string  `json:"category"`
}
