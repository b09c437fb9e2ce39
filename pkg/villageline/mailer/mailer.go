package mailer

import "gopkg.in/gomail.v2"

// Message is one outbound email with text and optional HTML alternatives.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers outbound email. The SMTP implementation is used in
// production; tests substitute an in-memory fake.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the given relay and from address.
func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Send delivers the message, dialing a fresh connection per call. Call volume
// is one voicemail notification at a time, so connection reuse is not worth
// the bookkeeping.
func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return s.dialer.DialAndSend(m)
}
