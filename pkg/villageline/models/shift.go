package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Shift validation errors
var (
	ErrShiftGroupMismatch = errors.New("user group of shift must match user group of volunteer")
	ErrShiftHourRange     = errors.New("shift hours must be between 6 and 23")
	ErrShiftHourOrder     = errors.New("shift start must be before its end")
	ErrShiftDay           = errors.New("invalid day of week")
)

// Days of the week as stored on shifts. Matches time.Weekday.String().
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// HourLabels maps shift hours onto the labels used in views and emails.
var HourLabels = map[int]string{
	6:  "6AM",
	7:  "7AM",
	8:  "8AM",
	9:  "9AM",
	10: "10AM",
	11: "11AM",
	12: "Midday",
	13: "1PM",
	14: "2PM",
	15: "3PM",
	16: "4PM",
	17: "5PM",
	18: "6PM",
	19: "7PM",
	20: "8PM",
	21: "9PM",
	22: "10PM",
	23: "11PM",
}

// HourLabel returns the display label for an hour, or "out of hours" for
// hours the line does not operate.
func HourLabel(hour int) string {
	if label, ok := HourLabels[hour]; ok {
		return label
	}
	return "out of hours"
}

// ValidDay reports whether day is one of the seven stored day names.
func ValidDay(day string) bool {
	switch day {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Shift is a recurring weekly availability window for one volunteer.
// The window is half-open: a volunteer on 8-11 covers hours 8, 9 and 10.
type Shift struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	VolunteerID uint           `gorm:"not null;index" json:"volunteer_id"`
	Day         string         `gorm:"type:varchar(10);not null" json:"day"`
	StartTime   int            `gorm:"not null" json:"start_time"`
	EndTime     int            `gorm:"not null" json:"end_time"`
	UserGroupID uint           `gorm:"not null;index" json:"user_group_id"`

	// Relationships
	Volunteer Volunteer `gorm:"foreignKey:VolunteerID" json:"volunteer,omitempty"`
	UserGroup UserGroup `gorm:"foreignKey:UserGroupID" json:"user_group,omitempty"`
}

// BeforeSave validates the shift window and checks that the shift belongs to
// the same group as its volunteer.
func (s *Shift) BeforeSave(tx *gorm.DB) error {
	if !ValidDay(s.Day) {
		return fmt.Errorf("%w: %q", ErrShiftDay, s.Day)
	}
	if s.StartTime < 6 || s.StartTime > 23 || s.EndTime < 6 || s.EndTime > 23 {
		return ErrShiftHourRange
	}
	if s.StartTime >= s.EndTime {
		return ErrShiftHourOrder
	}
	var volunteer Volunteer
	if err := tx.First(&volunteer, s.VolunteerID).Error; err != nil {
		return err
	}
	if volunteer.UserGroupID != s.UserGroupID {
		return ErrShiftGroupMismatch
	}
	return nil
}

func (s Shift) String() string {
	return fmt.Sprintf("%s, %s %s-%s", s.Volunteer.Name, s.Day,
		HourLabel(s.StartTime), HourLabel(s.EndTime))
}
