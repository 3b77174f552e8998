package model

import "time"

// Department is static reference data.  Each department owns zero or more
// categories and zero or more staff users.
type Department struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	HeadEmail   string    `json:"head_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category routes complaints to a department.  A complaint copies the
// category's department at creation time and never re-derives it.
type Category struct {
	ID           uint64
	Name         string
	Description  string
	DepartmentID uint64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
