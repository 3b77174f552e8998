package model

import "time"

// Status is a complaint's position in its lifecycle.  open is the sole
// initial state; closed and resolved can always be escaped through
// reopened, so no state is fully terminal.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusReopened   Status = "reopened"
)

// ValidStatus reports whether s names a known lifecycle status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// Complaint mirrors the `complaints` table.  TicketNumber is immutable once
// issued and unique across all years.  DepartmentID is copied from the
// category at creation.  ResolvedAt is stamped on the first transition into
// resolved and survives later reopen cycles.
type Complaint struct {
	ID           uint64     `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	CategoryID   uint64     `json:"category_id"`
	SubmittedBy  uint64     `json:"submitted_by"`
	AssignedTo   *uint64    `json:"assigned_to,omitempty"`
	DepartmentID uint64     `json:"department_id"`
	Location     *string    `json:"location,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Attachment belongs to exactly one complaint.  Rows are created only at
// complaint creation and never updated.
type Attachment struct {
	ID           uint64
	ComplaintID  uint64
	OriginalName string
	StoredName   string
	MimeType     string
	FileSize     int64
	UploadedBy   uint64
	CreatedAt    time.Time
}

// HistoryEntry is one row of the append-only audit trail.  FromStatus is
// nil for the creation entry.
type HistoryEntry struct {
	ID          uint64
	ComplaintID uint64
	ChangedBy   uint64
	FromStatus  *Status
	ToStatus    Status
	Note        *string
	CreatedAt   time.Time
}

// Remark is a free-text staff/admin note on a complaint.  Append-only.
type Remark struct {
	ID          uint64
	ComplaintID uint64
	AuthorID    uint64
	Content     string
	CreatedAt   time.Time
}
