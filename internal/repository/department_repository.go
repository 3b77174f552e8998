package repository

import (
	"context"
	"database/sql"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// DepartmentRepo reads the static department reference data.
type DepartmentRepo struct{ DB *sql.DB }

func NewDepartmentRepo(db *sql.DB) *DepartmentRepo { return &DepartmentRepo{DB: db} }

// List returns all departments ordered by name.
func (r *DepartmentRepo) List(ctx context.Context) ([]model.Department, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, description, head_email, created_at, updated_at FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Department
	for rows.Next() {
		var (
			d           model.Department
			description sql.NullString
			headEmail   sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &description, &headEmail, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Description = description.String
		d.HeadEmail = headEmail.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// Exists reports whether a department id is valid, used when creating
// staff accounts.
func (r *DepartmentRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM departments WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
