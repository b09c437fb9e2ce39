package voice

import (
	"fmt"
	"time"

	"github.com/villageline/villageline/pkg/villageline/database"
	"github.com/villageline/villageline/pkg/villageline/mailer"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/schedule"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier owns the at-most-once voicemail notification per call.
type Notifier struct {
	db     *gorm.DB
	sender mailer.Sender
	logger *zap.Logger
}

// NewNotifier creates a notifier
func NewNotifier(db *gorm.DB, sender mailer.Sender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.L()
	}
	return &Notifier{db: db, sender: sender, logger: logger}
}

// notification is the snapshot taken while the call row is locked, so mail
// composition can happen without holding the lock.
type notification struct {
	sid     string
	to      string
	message mailer.VoicemailEmailData
}

func buildNotification(call models.Call, group models.UserGroup) notification {
	return notification{
		sid: call.SID,
		to:  group.VoicemailEmail,
		message: mailer.VoicemailEmailData{
			GroupName:        group.Name,
			CallerNumber:     call.CallerNumber,
			RecordingURL:     call.RecordingURL,
			Transcription:    call.TranscriptionText,
			HasTranscription: call.TranscriptionSuccessful,
		},
	}
}

// SendEmailIfNecessary dispatches the notification email for a call once both
// the recording and the transcription have arrived.
//
// Phase 1 runs under the row lock: check the condition, claim the attempt flag
// and snapshot the fields the email needs. Phase 2 composes and sends outside
// the lock. Phase 3 records completion. A send failure leaves the claim set,
// so a retried webhook never produces a second email; recovery for that case
// is ResendUnfinished.
func (n *Notifier) SendEmailIfNecessary(sid string) error {
	var pending *notification
	err := n.db.Transaction(func(tx *gorm.DB) error {
		call, err := getCallForUpdate(tx, sid)
		if err != nil {
			return err
		}
		if !call.RecordingReceived || !call.TranscriptionReceived || call.EmailAttempted {
			// Condition not met yet, or another callback already claimed it.
			return nil
		}

		now := schedule.Now()
		call.EmailAttempted = true
		call.EmailSendTime = &now
		if err := tx.Save(&call).Error; err != nil {
			return err
		}

		var group models.UserGroup
		if err := tx.First(&group, call.UserGroupID).Error; err != nil {
			return err
		}
		note := buildNotification(call, group)
		pending = &note
		return nil
	})
	if err != nil || pending == nil {
		return err
	}

	if err := n.deliver(*pending); err != nil {
		return err
	}
	return n.markFinished(sid)
}

func (n *Notifier) deliver(note notification) error {
	msg, err := mailer.VoicemailMessage(note.to, note.message)
	if err != nil {
		return fmt.Errorf("composing voicemail email for %s: %w", note.sid, err)
	}
	if err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("sending voicemail email for %s: %w", note.sid, err)
	}
	n.logger.Info("voicemail notification sent",
		zap.String("call_sid", note.sid), zap.String("to", note.to))
	return nil
}

func (n *Notifier) markFinished(sid string) error {
	return n.db.Transaction(func(tx *gorm.DB) error {
		return database.ForUpdate(tx).Model(&models.Call{}).
			Where("sid = ?", sid).
			Update("email_send_finished", true).Error
	})
}

// ResendUnfinished re-delivers notifications whose attempt was claimed before
// the cutoff but never finished, which happens when the process crashed or the
// mail relay failed between claim and send. Returns the number re-sent.
func (n *Notifier) ResendUnfinished(cutoff time.Time) (int, error) {
	var calls []models.Call
	err := n.db.Preload("UserGroup").
		Where("email_attempted = ? AND email_send_finished = ? AND email_send_time < ?",
			true, false, cutoff).
		Order("email_send_time").
		Find(&calls).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, call := range calls {
		note := buildNotification(call, call.UserGroup)
		if err := n.deliver(note); err != nil {
			// Leave it eligible for the next sweep.
			n.logger.Error("reconciliation resend failed",
				zap.String("call_sid", call.SID), zap.Error(err))
			continue
		}
		if err := n.markFinished(call.SID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
