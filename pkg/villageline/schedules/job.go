package schedules

import (
	"errors"
	"fmt"
	"time"

	"github.com/villageline/villageline/pkg/villageline/mailer"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/schedule"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyRunning means another invocation holds the in-progress claim.
	ErrAlreadyRunning = errors.New("schedule email job already in progress")
	// ErrSentDateInFuture means the recorded send date is ahead of today,
	// which can only happen through clock or data corruption.
	ErrSentDateInFuture = errors.New("schedule email sent date is in the future")
)

// Job sends each opted-in volunteer an email listing tomorrow's shifts.
// It is meant to be invoked once a day by an external scheduler.
type Job struct {
	db     *gorm.DB
	sender mailer.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewJob creates a schedule-email job
func NewJob(db *gorm.DB, sender mailer.Sender, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.L()
	}
	return &Job{db: db, sender: sender, logger: logger, now: schedule.Now}
}

// Run executes one daily pass. It returns the number of emails sent.
//
// The email-state singleton is the idempotency gate: the claim is one
// conditional update (not in progress, not sent today), so two concurrent
// invocations cannot both proceed, and the completion update advances
// last_sent together with releasing the claim.
func (j *Job) Run() (int, error) {
	j.logger.Info("schedule sending process beginning")

	state, err := models.GetEmailState(j.db)
	if err != nil {
		return 0, err
	}

	today := models.Midnight(j.now())
	yesterday := today.AddDate(0, 0, -1)
	lastSent := models.Midnight(state.LastSent)

	if lastSent.After(today) {
		return 0, fmt.Errorf("%w: sent %s, today %s", ErrSentDateInFuture,
			lastSent.Format("2006-01-02"), today.Format("2006-01-02"))
	}
	if lastSent.Equal(today) {
		j.logger.Info("today's emails already sent, exiting",
			zap.String("today", today.Format("2006-01-02")))
		return 0, nil
	}
	if lastSent.Before(yesterday) {
		j.logger.Warn("sent date is more than one day behind today, were some emails skipped?",
			zap.String("last_sent", lastSent.Format("2006-01-02")),
			zap.String("today", today.Format("2006-01-02")))
	}

	// Claim the singleton. Zero rows affected means another invocation got
	// there first.
	claim := j.db.Model(&models.EmailState{}).
		Where("id = ? AND in_progress = ?", state.ID, false).
		Update("in_progress", true)
	if claim.Error != nil {
		return 0, claim.Error
	}
	if claim.RowsAffected == 0 {
		return 0, ErrAlreadyRunning
	}

	j.logger.Info("starting schedule send process")

	tomorrow := today.AddDate(0, 0, 1)
	sent, err := j.sendForDay(tomorrow.Weekday().String())
	if err != nil {
		// Release without advancing the sent date so the next invocation
		// retries instead of hitting ErrAlreadyRunning forever.
		j.releaseClaim(state.ID)
		return sent, err
	}

	// Release the claim and advance the sent date in one update.
	err = j.db.Model(&models.EmailState{}).
		Where("id = ?", state.ID).
		Updates(map[string]interface{}{
			"in_progress": false,
			"last_sent":   today,
		}).Error
	if err != nil {
		j.releaseClaim(state.ID)
		return sent, err
	}

	j.logger.Info("email send process completed", zap.Int("sent", sent))
	return sent, nil
}

// releaseClaim clears the in-progress flag after a failed run. Failure to
// release is only logged; the claim can still be cleared through the admin
// email-state endpoint.
func (j *Job) releaseClaim(id uint) {
	err := j.db.Model(&models.EmailState{}).
		Where("id = ?", id).
		Update("in_progress", false).Error
	if err != nil {
		j.logger.Error("failed to release schedule job claim", zap.Error(err))
	}
}

// sendForDay emails every opted-in volunteer who has shifts on the given day.
func (j *Job) sendForDay(day string) (int, error) {
	var shifts []models.Shift
	err := j.db.Preload("Volunteer").
		Where("day = ?", day).
		Order("id").
		Find(&shifts).Error
	if err != nil {
		return 0, err
	}

	j.logger.Info("tomorrow's shifts", zap.String("day", day), zap.Int("count", len(shifts)))
	for _, shift := range shifts {
		j.logger.Info("shift",
			zap.String("volunteer", shift.Volunteer.Name),
			zap.Int("start", shift.StartTime),
			zap.Int("end", shift.EndTime),
			zap.Bool("send_emails", shift.Volunteer.SendEmails))
	}

	// Aggregate shifts per volunteer, keeping only those who opted in.
	// Order of first appearance keeps the send order deterministic.
	byVolunteer := make(map[uint][]models.Shift)
	var order []uint
	for _, shift := range shifts {
		if !shift.Volunteer.SendEmails {
			continue
		}
		if _, seen := byVolunteer[shift.VolunteerID]; !seen {
			order = append(order, shift.VolunteerID)
		}
		byVolunteer[shift.VolunteerID] = append(byVolunteer[shift.VolunteerID], shift)
	}

	sent := 0
	for _, volunteerID := range order {
		volunteerShifts := byVolunteer[volunteerID]
		volunteer := volunteerShifts[0].Volunteer

		windows := make([]mailer.ShiftWindow, len(volunteerShifts))
		for i, s := range volunteerShifts {
			windows[i] = mailer.ShiftWindow{
				Day:        s.Day,
				StartLabel: models.HourLabel(s.StartTime),
				EndLabel:   models.HourLabel(s.EndTime),
			}
		}

		msg, err := mailer.ScheduleMessage(volunteer.Email, mailer.ScheduleEmailData{
			VolunteerName: volunteer.Name,
			Day:           day,
			Shifts:        windows,
		})
		if err != nil {
			return sent, err
		}
		if err := j.sender.Send(msg); err != nil {
			// One bad address should not starve the rest of the rota.
			j.logger.Error("failed to send schedule email",
				zap.String("volunteer", volunteer.Name),
				zap.String("to", volunteer.Email),
				zap.Error(err))
			continue
		}
		j.logger.Info("schedule email sent",
			zap.String("volunteer", volunteer.Name),
			zap.Int("shifts", len(volunteerShifts)))
		sent++
	}
	return sent, nil
}
