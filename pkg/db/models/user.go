package models

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an authenticated operator of the inventory.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username     string     `gorm:"column:username;type:varchar(80);not null;uniqueIndex"`
	Email        string     `gorm:"column:email;type:varchar(120);not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"column:role;type:varchar(20);not null;default:viewer"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
