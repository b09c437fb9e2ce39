package voice

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
	"github.com/villageline/villageline/pkg/villageline/mailer"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/schedule"
	"github.com/villageline/villageline/pkg/villageline/telephony"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recording parameters for the voicemail flow. The caller can end the
// recording with the star key or by staying silent for the timeout.
const (
	recordFinishKey      = "*"
	recordTimeoutSeconds = "120"
)

// Handler handles inbound Twilio voice webhooks
type Handler struct {
	db       *gorm.DB
	notifier *Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new voice handler
func NewHandler(db *gorm.DB, sender mailer.Sender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		db:       db,
		notifier: NewNotifier(db, sender, logger),
		logger:   logger,
		now:      schedule.Now,
	}
}

// Notifier exposes the handler's notifier for reconciliation endpoints.
func (h *Handler) Notifier() *Notifier {
	return h.notifier
}

// Handle answers an inbound call: it resolves the called number to a group,
// finds the volunteer on shift and responds with TwiML that either forwards
// the call or starts the voicemail flow.
func (h *Handler) Handle(c *gin.Context) {
	req, err := telephony.ParseWebhook(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook request"})
		return
	}

	var group models.UserGroup
	if err := h.db.Where("incoming_number = ?", req.To).First(&group).Error; err != nil {
		h.logger.Error("no user group found for called number",
			zap.String("called_number", req.To), zap.String("call_sid", req.CallSID))
		c.JSON(http.StatusNotFound, gin.H{"error": "No group for called number"})
		return
	}

	doc, err := h.buildResponse(group, req)
	if err != nil {
		h.logger.Error("failed to build voice response",
			zap.String("call_sid", req.CallSID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle call"})
		return
	}

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, doc)
}

// buildResponse picks the destination for the call. A volunteer on shift
// always wins; otherwise the group's default action decides between a
// fallback number and voicemail.
func (h *Handler) buildResponse(group models.UserGroup, req telephony.WebhookRequest) (string, error) {
	volunteer, err := schedule.VolunteerAt(h.db, group.ID, h.now())
	if err != nil {
		return "", err
	}

	if volunteer != nil {
		return forwardResponse(group.Greeting, volunteer.Number)
	}
	if group.DefaultAction == models.DefaultActionVoicemail {
		return h.voicemailResponse(group, req)
	}
	return forwardResponse(group.Greeting, group.DefaultDestination)
}

// forwardResponse speaks the greeting then dials the destination.
func forwardResponse(greeting, dialNumber string) (string, error) {
	say := &twiml.VoiceSay{
		Message:  greeting,
		Voice:    "woman",
		Language: "en-GB",
	}
	dial := &twiml.VoiceDial{Number: dialNumber}
	return twiml.Voice([]twiml.Element{say, dial})
}

// voicemailResponse creates the call record and asks the provider to record
// the caller, requesting both the recording-status callback and an automatic
// transcription callback.
func (h *Handler) voicemailResponse(group models.UserGroup, req telephony.WebhookRequest) (string, error) {
	call := models.Call{
		SID:          req.CallSID,
		UserGroupID:  group.ID,
		CallerNumber: req.From,
		CalledNumber: req.To,
	}
	if err := h.db.Create(&call).Error; err != nil {
		h.logger.Error("error creating call record",
			zap.String("call_sid", req.CallSID), zap.Error(err))
		return "", fmt.Errorf("creating call record: %w", err)
	}

	say := &twiml.VoiceSay{
		Message:  group.VoicemailGreeting,
		Voice:    "woman",
		Language: "en-GB",
	}
	record := &twiml.VoiceRecord{
		Action:                  "/voice/recording",
		FinishOnKey:             recordFinishKey,
		Timeout:                 recordTimeoutSeconds,
		RecordingStatusCallback: "/voice/recordingcomplete",
		Transcribe:              "true",
		TranscribeCallback:      "/voice/transcription",
	}
	return twiml.Voice([]twiml.Element{say, record})
}

// RegisterRoutes registers the provider webhook endpoints
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/handle", h.Handle)
	rg.POST("/recording", h.Recording)
	rg.POST("/recordingcomplete", h.RecordingComplete)
	rg.POST("/transcription", h.Transcription)
}
