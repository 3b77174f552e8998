// Package queue defines the lifecycle events exchanged over the message
// broker and the publisher/consumer pair that moves them.  The lifecycle
// engine emits events instead of writing notifications or sending mail
// inline, so a broker or worker failure can never fail a status update.
package queue

// Queue names.  Both are durable so events survive a broker restart.
const (
	NotifyQueueName = "complaint.notify"
	EmailQueueName  = "complaint.email"
)

// NotificationEvent asks the worker to append one in-app notification row.
type NotificationEvent struct {
	UserID      uint64  `json:"user_id"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Type        string  `json:"type"`
	ReferenceID *uint64 `json:"reference_id,omitempty"`
}

// Email kinds understood by the worker.
const (
	EmailKindStatusUpdate      = "status_update"
	EmailKindComplaintReceived = "complaint_received"
	EmailKindWelcome           = "welcome"
)

// EmailEvent asks the worker to send one templated mail.  The fields used
// depend on Kind: status updates carry TicketNumber and Status, receipts
// carry TicketNumber and Title, welcome mails carry TempPassword.
type EmailEvent struct {
	Kind         string `json:"kind"`
	To           string `json:"to"`
	Name         string `json:"name"`
	TicketNumber string `json:"ticket_number,omitempty"`
	Status       string `json:"status,omitempty"`
	Title        string `json:"title,omitempty"`
	TempPassword string `json:"temp_password,omitempty"`
}
