package model

import (
	"time"
)

// Tag is a label for filtering recipes. The (user_id, name) unique index
// backs the get-or-create path so concurrent creation cannot produce
// duplicate rows for the same user.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null;uniqueIndex:idx_tag_user_name"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_tag_user_name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
