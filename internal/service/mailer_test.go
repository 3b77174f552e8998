package service

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/queue"
)

func TestMailerSendRetriesThenSucceeds(t *testing.T) {
	calls := 0
	m := &Mailer{
		Host: "mail.test", Port: "25", From: "noreply@test",
		retryDelay: time.Millisecond,
		sendFn: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			if to[0] != "student@astu.edu.et" {
				t.Fatalf("unexpected recipient %q", to[0])
			}
			if !strings.Contains(string(msg), "ASTU-2026-00042") {
				t.Fatalf("ticket number missing from body:\n%s", msg)
			}
			return nil
		},
	}
	err := m.Send(context.Background(), queue.EmailEvent{
		Kind:         queue.EmailKindStatusUpdate,
		To:           "student@astu.edu.et",
		Name:         "Abebe",
		TicketNumber: "ASTU-2026-00042",
		Status:       "in_progress",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestMailerSendGivesUpAfterRetries(t *testing.T) {
	calls := 0
	m := &Mailer{
		Host: "mail.test", Port: "25", From: "noreply@test",
		retryDelay: time.Millisecond,
		sendFn: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			calls++
			return errors.New("down")
		},
	}
	err := m.Send(context.Background(), queue.EmailEvent{
		Kind: queue.EmailKindWelcome, To: "staff@astu.edu.et", Name: "Sara", TempPassword: "p",
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != mailRetries {
		t.Fatalf("expected %d attempts, got %d", mailRetries, calls)
	}
}

func TestRenderEmailKinds(t *testing.T) {
	subject, body := renderEmail(queue.EmailEvent{
		Kind: queue.EmailKindComplaintReceived, Name: "Abebe",
		TicketNumber: "ASTU-2026-00007", Title: "Broken projector",
	})
	if !strings.Contains(subject, "ASTU-2026-00007") {
		t.Fatalf("subject missing ticket: %q", subject)
	}
	if !strings.Contains(body, "Broken projector") {
		t.Fatalf("body missing title: %q", body)
	}

	subject, body = renderEmail(queue.EmailEvent{
		Kind: queue.EmailKindStatusUpdate, TicketNumber: "ASTU-2026-00007", Status: "in_progress",
	})
	if !strings.Contains(body, "in progress") {
		t.Fatalf("status not humanized: %q", body)
	}
	_ = subject
}
