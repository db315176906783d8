package model

import (
	"time"

	"github.com/google/uuid"
)

// UserAPILimit is the free-trial usage counter of one user.
type UserAPILimit struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex"`
	Count     int       `json:"count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (UserAPILimit) TableName() string {
	return "user_api_limits"
}
