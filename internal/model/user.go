package model

import "time"

// Role enumerates the three account roles recognised by the system.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User mirrors the `users` table.  Accounts are never physically deleted;
// deactivation flips IsActive.  FailedLogins and LockedUntil implement the
// login-lockout counter: five consecutive failures lock the account for
// fifteen minutes.
type User struct {
	ID           uint64
	FullName     string
	UniversityID string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *uint64
	IsActive     bool
	FailedLogins int
	LockedUntil  *time.Time
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
