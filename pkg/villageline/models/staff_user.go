package models

import (
	"time"

	"gorm.io/gorm"
)

// StaffRole represents a staff user's system-wide role
type StaffRole string

const (
	StaffRoleAdmin StaffRole = "admin"
	StaffRoleStaff StaffRole = "staff"
)

// StaffUser is a person who can sign in to the schedule views and admin API.
// Volunteers are not users; they only receive calls and emails.
type StaffUser struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Role         StaffRole      `gorm:"type:varchar(20);default:'staff'" json:"role"`
}
