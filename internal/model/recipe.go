package model

import (
	"time"
)

// Recipe represents a recipe owned by a user
type Recipe struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	UserID      uint         `json:"-" gorm:"index;not null"`
	User        User         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Title       string       `json:"title" gorm:"type:varchar(255);not null"`
	Description string       `json:"description" gorm:"type:text"`
	TimeMinutes int          `json:"time_minutes" gorm:"not null"`
	Price       string       `json:"price" gorm:"type:decimal(5,2);not null"`
	Link        string       `json:"link" gorm:"type:varchar(255)"`
	Image       string       `json:"image" gorm:"type:varchar(255)"`
	Tags        []Tag        `json:"tags" gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `json:"ingredients" gorm:"many2many:recipe_ingredients;"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
