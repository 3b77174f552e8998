package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// CategoryRepo persists complaint categories.  A category routes new
// complaints to its owning department.
type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

// GetActive returns the category only when it exists and is active.  The
// lifecycle engine uses this to validate complaint creation.
func (r *CategoryRepo) GetActive(ctx context.Context, id uint64) (model.Category, error) {
	var (
		c           model.Category
		description sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, description, department_id, is_active, created_at, updated_at FROM categories WHERE id=? AND is_active=TRUE",
		id).Scan(&c.ID, &c.Name, &description, &c.DepartmentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	c.Description = description.String
	return c, nil
}

// CategoryRow is the listing projection joined with the department name.
type CategoryRow struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	DepartmentID   uint64 `json:"department_id"`
	DepartmentName string `json:"department_name"`
	IsActive       bool   `json:"is_active"`
}

// ListActive returns active categories with their department names.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]CategoryRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.department_id, d.name, c.is_active
		FROM categories c LEFT JOIN departments d ON d.id = c.department_id
		WHERE c.is_active = TRUE ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var (
			c           CategoryRow
			description sql.NullString
			deptName    sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.DepartmentID, &deptName, &c.IsActive); err != nil {
			return nil, err
		}
		c.Description = description.String
		c.DepartmentName = deptName.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a category and returns its id.
func (r *CategoryRepo) Create(ctx context.Context, name, description string, departmentID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (name, description, department_id) VALUES (?,?,?)",
		name, description, departmentID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// CategoryPatch carries the mutable fields of an update; nil means leave
// unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// Update applies a partial update.  Returns ErrNotFound when the category
// does not exist and sql.ErrNoRows semantics for an empty patch are the
// caller's concern.
func (r *CategoryRepo) Update(ctx context.Context, id uint64, p CategoryPatch) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *p.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or a no-op update; disambiguate with a lookup.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id=?", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}
