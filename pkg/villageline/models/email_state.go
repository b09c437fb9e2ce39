package models

import (
	"time"
	_ "time/tzdata"

	"gorm.io/gorm"
)

const emailStateID = 1

// London is the hotline's wall clock; shift resolution and all date
// arithmetic use it regardless of where the service is deployed.
var London = mustLocation("Europe/London")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// EmailState is the singleton gate for the daily schedule-email job. LastSent
// is a date (midnight UTC); it bootstraps to yesterday so the first run ever
// proceeds.
type EmailState struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	InProgress bool      `gorm:"default:false" json:"in_progress"`
	LastSent   time.Time `json:"last_sent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Midnight returns t's calendar date on the London clock, pinned to midnight
// UTC. Pinning the result makes stored dates compare stably however the
// database driver round-trips the time's location.
func Midnight(t time.Time) time.Time {
	t = t.In(London)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetEmailState fetches the singleton row, creating it on first use.
func GetEmailState(db *gorm.DB) (EmailState, error) {
	var state EmailState
	err := db.First(&state, emailStateID).Error
	if err == nil {
		return state, nil
	}
	if err != gorm.ErrRecordNotFound {
		return EmailState{}, err
	}
	state = EmailState{
		ID:       emailStateID,
		LastSent: Midnight(time.Now()).AddDate(0, 0, -1),
	}
	if err := db.Create(&state).Error; err != nil {
		return EmailState{}, err
	}
	return state, nil
}
