package models

import (
	"time"
)

// User model for authentication and challan ownership
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     *string    `gorm:"column:full_name" json:"full_name,omitempty"`
	Phone        *string    `gorm:"column:phone" json:"phone,omitempty"`
	CNIC         *string    `gorm:"column:cnic" json:"cnic,omitempty"` // National ID
	Role         string     `gorm:"default:user" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
}

func (User) TableName() string {
	return "users"
}
