package model

import "time"

// Notification types used by the lifecycle engine when fanning out events.
const (
	NotifTypeNewComplaint = "new_complaint"
	NotifTypeStatusUpdate = "status_update"
	NotifTypeGeneral      = "general"
)

// Notification mirrors the `notifications` table.  Rows are created by
// lifecycle events and mutated only by the owning user marking them read.
type Notification struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	ReferenceID *uint64   `json:"reference_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
