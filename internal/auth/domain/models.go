package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string       `gorm:"size:255" json:"email"`
	FullName     string       `gorm:"size:255" json:"full_name"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	TokenHash string       `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}
