package models

import (
	"fmt"
	"time"
)

// Call is the persisted lifecycle state of one inbound call, keyed by the
// provider-assigned call SID. It is created when a voicemail flow starts and
// mutated in place by the later webhooks; the application never deletes it.
type Call struct {
	SID          string    `gorm:"primaryKey;size:34;column:sid" json:"sid"`
	UserGroupID  uint      `gorm:"not null;index" json:"user_group_id"`
	CallerNumber string    `json:"caller_number"`
	CalledNumber string    `json:"called_number"`
	CreatedAt    time.Time `json:"created_at"`

	// Recording / transcription state
	RecordingBegun          bool   `gorm:"default:false" json:"recording_begun"`
	RecordingReceived       bool   `gorm:"default:false" json:"recording_received"`
	RecordingURL            string `json:"recording_url"`
	TranscriptionReceived   bool   `gorm:"default:false" json:"transcription_received"`
	TranscriptionSuccessful bool   `gorm:"default:false" json:"transcription_successful"`
	TranscriptionText       string `gorm:"size:8192" json:"transcription_text"`

	// Notification state
	EmailAttempted    bool       `gorm:"default:false" json:"email_attempted"`
	EmailSendTime     *time.Time `json:"email_send_time"`
	EmailSendFinished bool       `gorm:"default:false" json:"email_send_finished"`

	// Relationships
	UserGroup UserGroup `gorm:"foreignKey:UserGroupID" json:"user_group,omitempty"`
}

func (c Call) String() string {
	return fmt.Sprintf("%s: %s", c.CreatedAt, c.SID)
}
