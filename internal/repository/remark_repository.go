package repository

import (
	"context"
	"database/sql"
	"time"
)

// RemarkRepo persists the append-only staff/admin remarks on complaints.
type RemarkRepo struct{ DB *sql.DB }

func NewRemarkRepo(db *sql.DB) *RemarkRepo { return &RemarkRepo{DB: db} }

// RemarkRow is a remark joined with its author's name and role.
type RemarkRow struct {
	ID         uint64    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   uint64    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Add appends a remark and returns the stored row with author details.
func (r *RemarkRepo) Add(ctx context.Context, complaintID, authorID uint64, content string) (RemarkRow, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO remarks (complaint_id, author_id, content) VALUES (?,?,?)",
		complaintID, authorID, content)
	if err != nil {
		return RemarkRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RemarkRow{}, err
	}
	var row RemarkRow
	err = r.DB.QueryRowContext(ctx, `
		SELECT r.id, r.content, r.author_id, u.full_name, u.role, r.created_at
		FROM remarks r LEFT JOIN users u ON u.id = r.author_id
		WHERE r.id = ?`, id).
		Scan(&row.ID, &row.Content, &row.AuthorID, &row.AuthorName, &row.AuthorRole, &row.CreatedAt)
	return row, err
}

// ListByComplaint returns remarks in chronological order.
func (r *RemarkRepo) ListByComplaint(ctx context.Context, complaintID uint64) ([]RemarkRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.content, r.author_id, u.full_name, u.role, r.created_at
		FROM remarks r LEFT JOIN users u ON u.id = r.author_id
		WHERE r.complaint_id = ? ORDER BY r.created_at ASC, r.id ASC`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RemarkRow
	for rows.Next() {
		var row RemarkRow
		if err := rows.Scan(&row.ID, &row.Content, &row.AuthorID, &row.AuthorName, &row.AuthorRole, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
