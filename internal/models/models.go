package models

import (
	"time"
)

// User represents an application account
type User struct {
	UserID       uint       `json:"userID" gorm:"primaryKey;column:user_id"`
	Username     string     `json:"username" gorm:"unique;not null;column:username"`
	Email        string     `json:"email" gorm:"unique;not null;column:email"`
	PasswordHash string     `json:"-" gorm:"not null;column:password_hash"`
	TOTPSecret   *string    `json:"-" gorm:"column:totp_secret"`
	IsActive     bool       `json:"isActive" gorm:"default:true;column:is_active"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" gorm:"column:updated_at"`
	LastLogin    *time.Time `json:"lastLogin" gorm:"column:last_login"`
}

func (User) TableName() string {
	return "users"
}

// TwoFactorEnabled reports whether the user has a TOTP secret configured.
func (u *User) TwoFactorEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// Session represents a user session
type Session struct {
	SessionID string    `json:"sessionID" gorm:"primaryKey;column:session_id"`
	UserID    uint      `json:"userID" gorm:"not null;column:user_id"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;column:expires_at"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Session) TableName() string {
	return "sessions"
}
