package models

import "time"

// User & auth related models
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name     string `gorm:"size:255" json:"name"`
	Username string `gorm:"size:150;index;default:''" json:"username"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash, never serialized

	IsActive    bool `gorm:"default:true" json:"is_active"`
	IsStaff     bool `json:"is_staff"`
	IsSuperuser bool `json:"is_superuser"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthToken is an opaque credential handed out at login. One row per user;
// logging in again returns the existing key.
type AuthToken struct {
	Key       string    `gorm:"primaryKey;size:40" json:"key"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
