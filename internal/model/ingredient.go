package model

import (
	"time"
)

// Ingredient is a recipe component owned by a user. Same uniqueness rule
// as Tag: one row per (user_id, name).
type Ingredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null;uniqueIndex:idx_ingredient_user_name"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_ingredient_user_name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
