package voice

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/villageline/villageline/pkg/villageline/models"
	"go.uber.org/zap"
)

func TestSendEmailIfNecessaryNoOpWhenAlreadyAttempted(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	notifier := NewNotifier(db, sender, zap.NewNop())
	group := createTestGroup(t, db, models.DefaultActionVoicemail)

	call := createTestCall(t, db, "CA0001", group)
	now := time.Now()
	db.Model(&call).Updates(map[string]interface{}{
		"recording_received":     true,
		"transcription_received": true,
		"email_attempted":        true,
		"email_send_time":        now,
	})

	if err := notifier.SendEmailIfNecessary("CA0001"); err != nil {
		t.Fatalf("SendEmailIfNecessary failed: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Errorf("Expected no email for already-attempted call, got %d", len(sender.messages))
	}
}

func TestSendEmailIfNecessaryNoOpWhenConditionsNotMet(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	notifier := NewNotifier(db, sender, zap.NewNop())
	group := createTestGroup(t, db, models.DefaultActionVoicemail)

	call := createTestCall(t, db, "CA0001", group)
	db.Model(&call).Update("recording_received", true)

	if err := notifier.SendEmailIfNecessary("CA0001"); err != nil {
		t.Fatalf("SendEmailIfNecessary failed: %v", err)
	}
	if len(sender.messages) != 0 {
		t.Errorf("Expected no email while transcription missing, got %d", len(sender.messages))
	}
	if reloadCall(t, db, "CA0001").EmailAttempted {
		t.Error("Expected attempt flag untouched while conditions unmet")
	}
}

func TestSendEmailIfNecessaryDispatchesOnce(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	notifier := NewNotifier(db, sender, zap.NewNop())
	group := createTestGroup(t, db, models.DefaultActionVoicemail)

	call := createTestCall(t, db, "CA0001", group)
	db.Model(&call).Updates(map[string]interface{}{
		"recording_received":     true,
		"recording_url":          "https://api.example.com/rec/CA0001",
		"transcription_received": true,
	})

	if err := notifier.SendEmailIfNecessary("CA0001"); err != nil {
		t.Fatalf("SendEmailIfNecessary failed: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("Expected one email, got %d", len(sender.messages))
	}

	got := reloadCall(t, db, "CA0001")
	if !got.EmailAttempted || got.EmailSendTime == nil || !got.EmailSendFinished {
		t.Error("Expected attempt, send time and completion recorded")
	}

	// Second evaluation is a no-op
	if err := notifier.SendEmailIfNecessary("CA0001"); err != nil {
		t.Fatalf("Second evaluation failed: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Errorf("Expected still one email, got %d", len(sender.messages))
	}
}

func TestSendFailureLeavesClaimSet(t *testing.T) {
	db := setupTestDB(t)
	_, sender, router := setupTestHandler(t, db)
	group := createTestGroup(t, db, models.DefaultActionVoicemail)
	createTestCall(t, db, "CA0001", group)
	sender.fail = errors.New("relay unavailable")

	postWebhook(router, "/voice/recordingcomplete", url.Values{
		"CallSid":      {"CA0001"},
		"RecordingUrl": {"https://api.example.com/rec/CA0001"},
	})
	resp := postWebhook(router, "/voice/transcription", url.Values{
		"CallSid":             {"CA0001"},
		"TranscriptionStatus": {"completed"},
		"TranscriptionText":   {"hello"},
	})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("Expected send failure to surface as 500, got %d", resp.Code)
	}

	call := reloadCall(t, db, "CA0001")
	if !call.EmailAttempted {
		t.Error("Expected attempt flag to remain set after send failure")
	}
	if call.EmailSendFinished {
		t.Error("Expected completion flag unset after send failure")
	}

	// The retried webhook must not attempt a second send
	resp = postWebhook(router, "/voice/transcription", url.Values{
		"CallSid":             {"CA0001"},
		"TranscriptionStatus": {"completed"},
		"TranscriptionText":   {"hello"},
	})
	if resp.Code != http.StatusOK {
		t.Errorf("Expected retry to be acknowledged without resending, got %d", resp.Code)
	}
}

func TestResendUnfinished(t *testing.T) {
	db := setupTestDB(t)
	sender := &fakeSender{}
	notifier := NewNotifier(db, sender, zap.NewNop())
	group := createTestGroup(t, db, models.DefaultActionVoicemail)

	// One stuck call, one finished call, one not yet attempted
	stuck := createTestCall(t, db, "CA_STUCK", group)
	past := time.Now().Add(-2 * time.Hour)
	db.Model(&stuck).Updates(map[string]interface{}{
		"recording_received":     true,
		"recording_url":          "https://api.example.com/rec/CA_STUCK",
		"transcription_received": true,
		"email_attempted":        true,
		"email_send_time":        past,
	})

	finished := createTestCall(t, db, "CA_DONE", group)
	db.Model(&finished).Updates(map[string]interface{}{
		"recording_received":     true,
		"transcription_received": true,
		"email_attempted":        true,
		"email_send_time":        past,
		"email_send_finished":    true,
	})

	createTestCall(t, db, "CA_FRESH", group)

	sent, err := notifier.ResendUnfinished(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ResendUnfinished failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("Expected 1 resend, got %d", sent)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(sender.messages))
	}

	if !reloadCall(t, db, "CA_STUCK").EmailSendFinished {
		t.Error("Expected stuck call marked finished after resend")
	}

	// A second sweep finds nothing
	sent, err = notifier.ResendUnfinished(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Second sweep failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("Expected 0 resends on second sweep, got %d", sent)
	}
}
