package schedule

import (
	"time"

	"github.com/villageline/villageline/pkg/villageline/models"
	"gorm.io/gorm"
)

// Now returns the current time on the hotline's wall clock.
func Now() time.Time {
	return time.Now().In(models.London)
}

// ShiftsAt returns all shifts active for a group on a given day and hour.
// The shift window is half-open, so an 8-11 shift covers hours 8 through 10.
// Overlapping shifts are returned lowest id first; that ordering is the
// documented tie-break for "who takes the call".
func ShiftsAt(db *gorm.DB, userGroupID uint, day string, hour int) ([]models.Shift, error) {
	var shifts []models.Shift
	err := db.Preload("Volunteer").
		Where("user_group_id = ? AND day = ? AND start_time <= ? AND end_time > ?",
			userGroupID, day, hour, hour).
		Order("id").
		Find(&shifts).Error
	return shifts, err
}

// VolunteerAt returns the volunteer responsible for a group at the given
// instant, or nil if nobody is on shift.
func VolunteerAt(db *gorm.DB, userGroupID uint, at time.Time) (*models.Volunteer, error) {
	at = at.In(models.London)
	shifts, err := ShiftsAt(db, userGroupID, at.Weekday().String(), at.Hour())
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, nil
	}
	return &shifts[0].Volunteer, nil
}

// CurrentVolunteer resolves the volunteer on shift right now.
func CurrentVolunteer(db *gorm.DB, userGroupID uint) (*models.Volunteer, error) {
	return VolunteerAt(db, userGroupID, Now())
}
