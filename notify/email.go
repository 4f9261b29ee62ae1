package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
)

// SMTPEmail sends plain-text mail through an SMTP relay.
type SMTPEmail struct {
	host     string
	port     string
	sender   string
	password string
}

// NewSMTPEmail builds an email transport from MAIL_* environment variables.
// Returns nil when no sender is configured.
func NewSMTPEmail() *SMTPEmail {
	sender := os.Getenv("MAIL_SENDER")
	if sender == "" {
		return nil
	}
	host := os.Getenv("MAIL_SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("MAIL_SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &SMTPEmail{
		host:     host,
		port:     port,
		sender:   sender,
		password: os.Getenv("MAIL_PASSWORD"),
	}
}

// Send delivers the message to msg.Recipient.
func (e *SMTPEmail) Send(_ context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("no recipient email provided")
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		e.sender, msg.Recipient, msg.Subject, msg.Body)
	auth := smtp.PlainAuth("", e.sender, e.password, e.host)
	addr := e.host + ":" + e.port
	if err := smtp.SendMail(addr, auth, e.sender, []string{msg.Recipient}, []byte(body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
