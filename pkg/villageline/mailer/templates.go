package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// NoTranscriptionNotice is used when the provider could not transcribe the call.
const NoTranscriptionNotice = "No transcription of the call is available."

// VoicemailEmailData is the context for the voicemail notification templates.
type VoicemailEmailData struct {
	GroupName        string
	CallerNumber     string
	RecordingURL     string
	Transcription    string
	HasTranscription bool
}

// ShiftWindow is one shift in a schedule email, already mapped to labels.
type ShiftWindow struct {
	Day        string
	StartLabel string
	EndLabel   string
}

// ScheduleEmailData is the context for the daily schedule templates.
type ScheduleEmailData struct {
	VolunteerName string
	Day           string
	Shifts        []ShiftWindow
}

var voicemailText = texttemplate.Must(texttemplate.New("voicemail.txt").Parse(
	`You have a new voicemail on the {{.GroupName}} line.

Caller: {{.CallerNumber}}
Recording: {{.RecordingURL}}

{{if .HasTranscription}}Transcription:

{{.Transcription}}{{else}}` + NoTranscriptionNotice + `{{end}}
`))

var voicemailHTML = template.Must(template.New("voicemail.html").Parse(
	`<html><body>
<p>You have a new voicemail on the {{.GroupName}} line.</p>
<p>Caller: {{.CallerNumber}}<br>
Recording: <a href="{{.RecordingURL}}">{{.RecordingURL}}</a></p>
{{if .HasTranscription}}<p>Transcription:</p><p>{{.Transcription}}</p>{{else}}<p>` + NoTranscriptionNotice + `</p>{{end}}
</body></html>
`))

var scheduleText = texttemplate.Must(texttemplate.New("schedule.txt").Parse(
	`Hi {{.VolunteerName}},

Your shifts on the community line tomorrow ({{.Day}}):
{{range .Shifts}}
- {{.StartLabel}} to {{.EndLabel}}{{end}}

Thank you for volunteering.
`))

var scheduleHTML = template.Must(template.New("schedule.html").Parse(
	`<html><body>
<p>Hi {{.VolunteerName}},</p>
<p>Your shifts on the community line tomorrow ({{.Day}}):</p>
<ul>{{range .Shifts}}<li>{{.StartLabel}} to {{.EndLabel}}</li>{{end}}</ul>
<p>Thank you for volunteering.</p>
</body></html>
`))

func render(textTmpl *texttemplate.Template, htmlTmpl *template.Template, data interface{}) (string, string, error) {
	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return "", "", err
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}

// VoicemailMessage composes the one-per-call voicemail notification.
func VoicemailMessage(to string, data VoicemailEmailData) (Message, error) {
	text, html, err := render(voicemailText, voicemailHTML, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Community Line: new voicemail from %s", data.CallerNumber),
		Text:    text,
		HTML:    html,
	}, nil
}

// ScheduleMessage composes one volunteer's daily schedule email.
func ScheduleMessage(to string, data ScheduleEmailData) (Message, error) {
	text, html, err := render(scheduleText, scheduleHTML, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Community Line: your shifts for %s", data.Day),
		Text:    text,
		HTML:    html,
	}, nil
}
