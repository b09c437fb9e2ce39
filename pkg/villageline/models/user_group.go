package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAction is what happens to a call when no volunteer is on shift.
type DefaultAction string

const (
	DefaultActionVoicemail   DefaultAction = "Voicemail"
	DefaultActionDestination DefaultAction = "Default Destination"
)

// UserGroup is the routing identity for one incoming phone line, with its own
// volunteers, shifts and fallback behaviour.
type UserGroup struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	// Incoming number in E.164; exactly one group owns each line.
	IncomingNumber string        `gorm:"uniqueIndex;not null" json:"incoming_number"`
	Greeting       string        `gorm:"size:200" json:"greeting"`
	DefaultAction  DefaultAction `gorm:"type:varchar(25);default:'Default Destination'" json:"default_action"`
	// Where the call goes when nobody is on shift and the default action is
	// not voicemail.
	DefaultDestination string `json:"default_destination"`
	VoicemailEmail     string `gorm:"default:'default@domain.local'" json:"voicemail_email"`
	VoicemailGreeting  string `gorm:"size:200" json:"voicemail_greeting"`

	// Relationships
	Volunteers []Volunteer `gorm:"foreignKey:UserGroupID" json:"volunteers,omitempty"`
}
