// Package service holds side-effect helpers driven by the event worker.
package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/queue"
)

// Mailer renders and sends the templated mails the worker consumes.
// Delivery retries a few times with growing delays; persistent failures
// are reported to the caller, which logs and moves on.
type Mailer struct {
	Host string
	Port string
	User string
	Pass string
	From string

	// sendFn is swappable for tests; defaults to smtp.SendMail.
	sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	// retryDelay is the base backoff between attempts.
	retryDelay time.Duration
}

// NewMailer builds a Mailer from the loaded configuration.
func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPass,
		From:   cfg.MailFrom,
		sendFn: smtp.SendMail,
	}
}

const mailRetries = 3

// Send renders the event into a message and delivers it, retrying
// transient failures with exponential backoff.
func (m *Mailer) Send(ctx context.Context, ev queue.EmailEvent) error {
	subject, body := renderEmail(ev)
	msg := buildMessage(m.From, ev.To, subject, body)

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	send := m.sendFn
	if send == nil {
		send = smtp.SendMail
	}
	delay := m.retryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= mailRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = send(addr, auth, m.From, []string{ev.To}, msg)
		if lastErr == nil {
			return nil
		}
		if attempt < mailRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * delay):
			}
		}
	}
	return fmt.Errorf("send mail after %d attempts: %w", mailRetries, lastErr)
}

func renderEmail(ev queue.EmailEvent) (subject, body string) {
	name := ev.Name
	if name == "" {
		name = "there"
	}
	switch ev.Kind {
	case queue.EmailKindStatusUpdate:
		subject = fmt.Sprintf("Complaint %s status update", ev.TicketNumber)
		body = fmt.Sprintf(
			"Hello %s,\r\n\r\nYour complaint %s is now %q.\r\n\r\nYou can review the details and any remarks from your dashboard.\r\n\r\nASTU Smart Complaints",
			name, ev.TicketNumber, strings.ReplaceAll(ev.Status, "_", " "))
	case queue.EmailKindComplaintReceived:
		subject = fmt.Sprintf("Complaint %s received", ev.TicketNumber)
		body = fmt.Sprintf(
			"Hello %s,\r\n\r\nWe received your complaint %q and assigned it ticket %s.\r\nThe responsible department has been notified and will follow up shortly.\r\n\r\nASTU Smart Complaints",
			name, ev.Title, ev.TicketNumber)
	case queue.EmailKindWelcome:
		subject = "Your ASTU Smart Complaints account"
		body = fmt.Sprintf(
			"Hello %s,\r\n\r\nA staff account has been created for you.\r\nTemporary password: %s\r\n\r\nPlease sign in and change it right away.\r\n\r\nASTU Smart Complaints",
			name, ev.TempPassword)
	default:
		subject = "ASTU Smart Complaints"
		body = fmt.Sprintf("Hello %s,\r\n\r\n%s\r\n\r\nASTU Smart Complaints", name, ev.Title)
	}
	return subject, body
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
