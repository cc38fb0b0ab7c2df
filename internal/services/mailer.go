package services

import (
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, user, pass),
	}
}

// Send delivers a plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// LogMailer writes messages to the log instead of sending them. It is used
// when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("[Mailer] SMTP not configured, dropping mail to %s: %s", to, subject)
	return nil
}
