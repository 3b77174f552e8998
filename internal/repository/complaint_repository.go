package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/policy"
)

// ComplaintRepo persists complaints, their attachments and the append-only
// history trail.  Multi-statement writes run inside a *sql.Tx owned by the
// caller so the state change and its audit row commit or roll back
// together.
type ComplaintRepo struct{ DB *sql.DB }

func NewComplaintRepo(db *sql.DB) *ComplaintRepo { return &ComplaintRepo{DB: db} }

// CountForYear returns the number of complaints created in a calendar
// year.  The next ticket sequence is this count plus one; concurrent
// creations may race here, which the unique ticket constraint catches.
func (r *ComplaintRepo) CountForYear(ctx context.Context, year int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM complaints WHERE YEAR(created_at)=?", year).Scan(&n)
	return n, err
}

// CreateTx inserts a complaint with initial status open and populates the
// generated id.  A ticket-number collision surfaces as ErrDuplicateTicket
// so the caller can retry with a fresh sequence.
func (r *ComplaintRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Complaint) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO complaints (ticket_number, title, description, status, category_id, submitted_by, department_id, location)
		VALUES (?,?,?,'open',?,?,?,?)`,
		c.TicketNumber, c.Title, c.Description, c.CategoryID, c.SubmittedBy, c.DepartmentID, c.Location)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTicket
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Status = model.StatusOpen
	return nil
}

// AddAttachmentsTx inserts attachment rows for a complaint.  Passing an
// empty slice has no effect.
func (r *ComplaintRepo) AddAttachmentsTx(ctx context.Context, tx *sql.Tx, complaintID uint64, files []model.Attachment) error {
	if len(files) == 0 {
		return nil
	}
	query := "INSERT INTO complaint_attachments (complaint_id, original_name, stored_name, mime_type, file_size, uploaded_by) VALUES "
	args := make([]interface{}, 0, len(files)*6)
	for i, f := range files {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?,?)"
		args = append(args, complaintID, f.OriginalName, f.StoredName, f.MimeType, f.FileSize, f.UploadedBy)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// AddHistoryTx appends one audit row.  fromStatus is nil only for the
// creation entry.
func (r *ComplaintRepo) AddHistoryTx(ctx context.Context, tx *sql.Tx, complaintID, changedBy uint64, fromStatus *model.Status, toStatus model.Status, note *string) error {
	var from interface{}
	if fromStatus != nil {
		from = string(*fromStatus)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO complaint_history (complaint_id, changed_by, from_status, to_status, note)
		VALUES (?,?,?,?,?)`,
		complaintID, changedBy, from, string(toStatus), note)
	return err
}

// UpdateStatusTx performs the conditional status write.  The WHERE clause
// carries the expected prior status so a concurrent transition that
// happened between the validation read and this write makes the update
// affect zero rows instead of silently overwriting; the caller then
// reports an invalid transition.  resolved_at is stamped only when
// entering resolved and COALESCE preserves the original timestamp on any
// later cycle through reopened.
func (r *ComplaintRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.Status) (bool, error) {
	var resolvedAt interface{}
	if to == model.StatusResolved {
		resolvedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE complaints SET status=?, resolved_at=COALESCE(resolved_at, ?) WHERE id=? AND status=?",
		string(to), resolvedAt, id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Detail is the single-complaint projection with joined display names and
// attachments.
type Detail struct {
	model.Complaint
	CategoryName   string           `json:"category_name"`
	DepartmentName string           `json:"department_name"`
	SubmitterName  string           `json:"submitter_name"`
	SubmitterEmail string           `json:"submitter_email"`
	AssigneeName   *string          `json:"assignee_name,omitempty"`
	Attachments    []AttachmentMeta `json:"attachments"`
}

// AttachmentMeta is the attachment projection exposed to clients; the
// stored name stays server-side.
type AttachmentMeta struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetByID loads a complaint with joined names and its attachment metadata.
// Access decisions are the caller's job; this only loads.
func (r *ComplaintRepo) GetByID(ctx context.Context, id uint64) (Detail, error) {
	var (
		d            Detail
		status       string
		assignedTo   sql.NullInt64
		location     sql.NullString
		resolvedAt   sql.NullTime
		assigneeName sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT c.id, c.ticket_number, c.title, c.description, c.status,
		       c.category_id, c.submitted_by, c.assigned_to, c.department_id,
		       c.location, c.resolved_at, c.created_at, c.updated_at,
		       cat.name, d.name, u.full_name, u.email, a.full_name
		FROM complaints c
		LEFT JOIN categories cat ON cat.id = c.category_id
		LEFT JOIN departments d ON d.id = c.department_id
		LEFT JOIN users u ON u.id = c.submitted_by
		LEFT JOIN users a ON a.id = c.assigned_to
		WHERE c.id = ?`, id).
		Scan(&d.ID, &d.TicketNumber, &d.Title, &d.Description, &status,
			&d.CategoryID, &d.SubmittedBy, &assignedTo, &d.DepartmentID,
			&location, &resolvedAt, &d.CreatedAt, &d.UpdatedAt,
			&d.CategoryName, &d.DepartmentName, &d.SubmitterName, &d.SubmitterEmail, &assigneeName)
	if err == sql.ErrNoRows {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}
	d.Status = model.Status(status)
	if assignedTo.Valid {
		v := uint64(assignedTo.Int64)
		d.AssignedTo = &v
	}
	if location.Valid {
		v := location.String
		d.Location = &v
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	if assigneeName.Valid {
		v := assigneeName.String
		d.AssigneeName = &v
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, original_name, mime_type, file_size, created_at FROM complaint_attachments WHERE complaint_id=?", id)
	if err != nil {
		return Detail{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a AttachmentMeta
		if err := rows.Scan(&a.ID, &a.OriginalName, &a.MimeType, &a.FileSize, &a.CreatedAt); err != nil {
			return Detail{}, err
		}
		d.Attachments = append(d.Attachments, a)
	}
	return d, rows.Err()
}

// GetAttachment loads one attachment record; the caller re-checks access
// against the owning complaint before serving the file.
func (r *ComplaintRepo) GetAttachment(ctx context.Context, id uint64) (model.Attachment, error) {
	var a model.Attachment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, complaint_id, original_name, stored_name, mime_type, file_size, uploaded_by, created_at FROM complaint_attachments WHERE id=?",
		id).Scan(&a.ID, &a.ComplaintID, &a.OriginalName, &a.StoredName, &a.MimeType, &a.FileSize, &a.UploadedBy, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Attachment{}, ErrNotFound
	}
	return a, err
}

// ListFilters are the optional complaint list refinements on top of the
// mandatory policy scope.
type ListFilters struct {
	Status     *model.Status
	CategoryID *uint64
	From       *time.Time
	To         *time.Time
	Sort       string // whitelisted: created_at, updated_at, status
	Order      string // ASC or DESC
	Page       int
	Limit      int
}

// Summary is one row of the complaint listing.
type Summary struct {
	ID              uint64     `json:"id"`
	TicketNumber    string     `json:"ticket_number"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	CategoryName    string     `json:"category_name"`
	DepartmentName  string     `json:"department_name"`
	SubmitterName   string     `json:"submitter_name"`
	AttachmentCount int        `json:"attachment_count"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

var sortColumns = map[string]string{
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
	"status":     "c.status",
}

// List applies the policy scope as part of the WHERE clause, never as a
// post-hoc filter, then the optional refinements.  It returns a page plus
// the unpaged total.
func (r *ComplaintRepo) List(ctx context.Context, scope policy.ListScope, f ListFilters) ([]Summary, int, error) {
	if scope.Empty {
		return nil, 0, nil
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	if scope.SubmittedBy != nil {
		where += " AND c.submitted_by=?"
		args = append(args, *scope.SubmittedBy)
	}
	if scope.DepartmentID != nil {
		where += " AND c.department_id=?"
		args = append(args, *scope.DepartmentID)
	}
	if f.Status != nil {
		where += " AND c.status=?"
		args = append(args, string(*f.Status))
	}
	if f.CategoryID != nil {
		where += " AND c.category_id=?"
		args = append(args, *f.CategoryID)
	}
	if f.From != nil {
		where += " AND c.created_at >= ?"
		args = append(args, *f.From)
	}
	if f.To != nil {
		where += " AND c.created_at <= ?"
		args = append(args, *f.To)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM complaints c"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[f.Sort]
	if !ok {
		sortCol = "c.created_at"
	}
	order := "DESC"
	if f.Order == "ASC" {
		order = "ASC"
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
		SELECT c.id, c.ticket_number, c.title, c.status, cat.name, d.name, u.full_name,
		       (SELECT COUNT(*) FROM complaint_attachments WHERE complaint_id = c.id),
		       c.resolved_at, c.created_at, c.updated_at
		FROM complaints c
		LEFT JOIN categories cat ON cat.id = c.category_id
		LEFT JOIN departments d ON d.id = c.department_id
		LEFT JOIN users u ON u.id = c.submitted_by
		%s ORDER BY %s %s LIMIT ? OFFSET ?`, where, sortCol, order)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s          Summary
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.TicketNumber, &s.Title, &s.Status, &s.CategoryName,
			&s.DepartmentName, &s.SubmitterName, &s.AttachmentCount,
			&resolvedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			s.ResolvedAt = &t
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// HistoryRow is one audit entry joined with the actor's display name.
type HistoryRow struct {
	ID            uint64    `json:"id"`
	FromStatus    *string   `json:"from_status,omitempty"`
	ToStatus      string    `json:"to_status"`
	Note          *string   `json:"note,omitempty"`
	ChangedBy     uint64    `json:"changed_by"`
	ChangedByName string    `json:"changed_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// History returns the audit trail in chronological order.
func (r *ComplaintRepo) History(ctx context.Context, complaintID uint64) ([]HistoryRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT ch.id, ch.from_status, ch.to_status, ch.note, ch.changed_by, u.full_name, ch.created_at
		FROM complaint_history ch
		LEFT JOIN users u ON u.id = ch.changed_by
		WHERE ch.complaint_id = ?
		ORDER BY ch.created_at ASC, ch.id ASC`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var (
			h    HistoryRow
			from sql.NullString
			note sql.NullString
			name sql.NullString
		)
		if err := rows.Scan(&h.ID, &from, &h.ToStatus, &note, &h.ChangedBy, &name, &h.CreatedAt); err != nil {
			return nil, err
		}
		if from.Valid {
			v := from.String
			h.FromStatus = &v
		}
		if note.Valid {
			v := note.String
			h.Note = &v
		}
		h.ChangedByName = name.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// Delete removes a complaint; attachments, history and remarks cascade via
// foreign keys.  Returns ErrNotFound when no row matched.
func (r *ComplaintRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM complaints WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
