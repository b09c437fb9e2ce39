package voice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/database"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/telephony"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// getCallForUpdate loads the call row with a row lock so concurrent callbacks
// for the same call serialize. Must be called inside a transaction.
func getCallForUpdate(tx *gorm.DB, sid string) (models.Call, error) {
	var call models.Call
	err := database.ForUpdate(tx).Where("sid = ?", sid).First(&call).Error
	return call, err
}

// respondToCallback turns the transaction outcome into the webhook response.
// Twilio expects an empty 200 acknowledgment; unknown call SIDs are a 404.
func (h *Handler) respondToCallback(c *gin.Context, sid string, err error) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("callback for unknown call", zap.String("call_sid", sid))
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown call"})
		return
	}
	h.logger.Error("callback failed", zap.String("call_sid", sid), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process callback"})
}

// Recording marks that the provider has started recording the caller.
func (h *Handler) Recording(c *gin.Context) {
	req, err := telephony.ParseWebhook(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook request"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		call, err := getCallForUpdate(tx, req.CallSID)
		if err != nil {
			return err
		}
		call.RecordingBegun = true
		return tx.Save(&call).Error
	})
	h.respondToCallback(c, req.CallSID, err)
}

// RecordingComplete stores the recording URL. If the transcription already
// arrived this is the event that releases the notification email.
func (h *Handler) RecordingComplete(c *gin.Context) {
	req, err := telephony.ParseWebhook(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook request"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		call, err := getCallForUpdate(tx, req.CallSID)
		if err != nil {
			return err
		}
		call.RecordingReceived = true
		call.RecordingURL = req.RecordingURL
		return tx.Save(&call).Error
	})
	if err == nil {
		err = h.notifier.SendEmailIfNecessary(req.CallSID)
	}
	h.respondToCallback(c, req.CallSID, err)
}

// Transcription stores the transcription outcome. A status other than
// "completed" leaves the call marked transcription-failed; the notification
// email then carries the no-transcription notice instead of text.
func (h *Handler) Transcription(c *gin.Context) {
	req, err := telephony.ParseWebhook(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook request"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		call, err := getCallForUpdate(tx, req.CallSID)
		if err != nil {
			return err
		}
		call.TranscriptionReceived = true
		if req.TranscriptionStatus == "completed" {
			call.TranscriptionSuccessful = true
			call.TranscriptionText = req.TranscriptionText
		} else {
			// Being explicit that this field stays false here.
			call.TranscriptionSuccessful = false
		}
		return tx.Save(&call).Error
	})
	if err == nil {
		err = h.notifier.SendEmailIfNecessary(req.CallSID)
	}
	h.respondToCallback(c, req.CallSID, err)
}
