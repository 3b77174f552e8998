package policy

import (
	"errors"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// ErrAccessDenied means the actor may not read or act on the complaint.
var ErrAccessDenied = errors.New("access denied")

// Actor is the authenticated identity a decision is made for.  Department
// is nil for students and admins, and for staff not attached to any
// department (who therefore see nothing).
type Actor struct {
	UserID     uint64
	Role       model.Role
	Department *uint64
}

// CanRead decides read access to a single complaint: students only their
// own submissions, staff only their department's tickets, admins anything.
func CanRead(a Actor, c *model.Complaint) error {
	switch a.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleStudent:
		if c.SubmittedBy == a.UserID {
			return nil
		}
	case model.RoleStaff:
		if a.Department != nil && *a.Department == c.DepartmentID {
			return nil
		}
	}
	return ErrAccessDenied
}

// ListScope is the mandatory filter applied to complaint list queries.  It
// is expressed as data rather than a post-hoc check so repositories can
// push it into the WHERE clause.
type ListScope struct {
	SubmittedBy  *uint64 // non-nil: restrict to this submitter
	DepartmentID *uint64 // non-nil: restrict to this department
	Empty        bool    // true: the caller can see nothing at all
}

// ScopeFor derives the list scope for an actor.  requestedDept is the
// department filter from the query string; only admins may use it.
func ScopeFor(a Actor, requestedDept *uint64) ListScope {
	switch a.Role {
	case model.RoleStudent:
		uid := a.UserID
		return ListScope{SubmittedBy: &uid}
	case model.RoleStaff:
		if a.Department == nil {
			return ListScope{Empty: true}
		}
		return ListScope{DepartmentID: a.Department}
	case model.RoleAdmin:
		return ListScope{DepartmentID: requestedDept}
	}
	return ListScope{Empty: true}
}

// CanDelete gates complaint deletion: admin only.
func CanDelete(a Actor) error {
	if a.Role == model.RoleAdmin {
		return nil
	}
	return ErrAccessDenied
}
