package models

import (
	"time"

	"gorm.io/gorm"
)

// Volunteer is a person eligible to take calls for one group.
type Volunteer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	// Number in E.164; this is what gets dialled when they are on shift.
	Number string `gorm:"not null" json:"number"`
	Email  string `gorm:"not null" json:"email"`
	// Whether the volunteer wants the daily schedule email.
	SendEmails  bool `gorm:"default:true" json:"send_emails"`
	UserGroupID uint `gorm:"not null;index" json:"user_group_id"`

	// Relationships
	UserGroup UserGroup `gorm:"foreignKey:UserGroupID" json:"user_group,omitempty"`
	Shifts    []Shift   `gorm:"foreignKey:VolunteerID;constraint:OnDelete:CASCADE" json:"shifts,omitempty"`
}
