package telephony

import (
	"errors"
	"net/http"

	"github.com/villageline/villageline/pkg/villageline/phonenumber"
)

var ErrMissingCallSID = errors.New("webhook request has no CallSid")

// WebhookRequest captures the subset of Twilio voice webhook fields the
// application cares about. Twilio sends application/x-www-form-urlencoded.
// This is a provider adapter only; routing decisions are not made here.
type WebhookRequest struct {
	CallSID             string
	AccountSID          string
	From                string
	To                  string
	CallStatus          string
	RecordingURL        string
	TranscriptionStatus string
	TranscriptionText   string
}

// ParseWebhook decodes a Twilio webhook form. Caller and called numbers are
// normalized to E.164 so they match the numbers stored on groups.
func ParseWebhook(r *http.Request) (WebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return WebhookRequest{}, err
	}
	req := WebhookRequest{
		CallSID:             r.PostFormValue("CallSid"),
		AccountSID:          r.PostFormValue("AccountSid"),
		From:                phonenumber.Normalize(r.PostFormValue("From")),
		To:                  phonenumber.Normalize(r.PostFormValue("To")),
		CallStatus:          r.PostFormValue("CallStatus"),
		RecordingURL:        r.PostFormValue("RecordingUrl"),
		TranscriptionStatus: r.PostFormValue("TranscriptionStatus"),
		TranscriptionText:   r.PostFormValue("TranscriptionText"),
	}
	if req.CallSID == "" {
		return WebhookRequest{}, ErrMissingCallSID
	}
	return req, nil
}
