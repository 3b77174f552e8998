package policy

import (
	"testing"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

func TestCheckTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		current model.Status
		target  model.Status
		role    model.Role
		want    error
	}{
		{"staff starts work on open", model.StatusOpen, model.StatusInProgress, model.RoleStaff, nil},
		{"staff starts work on reopened", model.StatusReopened, model.StatusInProgress, model.RoleStaff, nil},
		{"admin starts work on open", model.StatusOpen, model.StatusInProgress, model.RoleAdmin, nil},
		{"staff resolves in_progress", model.StatusInProgress, model.StatusResolved, model.RoleStaff, nil},
		{"admin closes open", model.StatusOpen, model.StatusClosed, model.RoleAdmin, nil},
		{"admin closes in_progress", model.StatusInProgress, model.StatusClosed, model.RoleAdmin, nil},
		{"admin closes resolved", model.StatusResolved, model.StatusClosed, model.RoleAdmin, nil},
		{"admin reopens resolved", model.StatusResolved, model.StatusReopened, model.RoleAdmin, nil},
		{"admin reopens closed", model.StatusClosed, model.StatusReopened, model.RoleAdmin, nil},

		{"cannot resolve open directly", model.StatusOpen, model.StatusResolved, model.RoleStaff, ErrInvalidTransition},
		{"cannot reopen open", model.StatusOpen, model.StatusReopened, model.RoleAdmin, ErrInvalidTransition},
		{"cannot close closed", model.StatusClosed, model.StatusClosed, model.RoleAdmin, ErrInvalidTransition},
		{"cannot start work on resolved", model.StatusResolved, model.StatusInProgress, model.RoleStaff, ErrInvalidTransition},

		{"student may not start work", model.StatusOpen, model.StatusInProgress, model.RoleStudent, ErrRoleNotAllowed},
		{"staff may not close", model.StatusOpen, model.StatusClosed, model.RoleStaff, ErrRoleNotAllowed},
		{"staff may not reopen", model.StatusResolved, model.StatusReopened, model.RoleStaff, ErrRoleNotAllowed},

		{"open is not a transition target", model.StatusClosed, model.StatusOpen, model.RoleAdmin, ErrUnknownStatus},
		{"garbage target", model.StatusOpen, model.Status("escalated"), model.RoleAdmin, ErrUnknownStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckTransition(tc.current, tc.target, tc.role); got != tc.want {
				t.Fatalf("CheckTransition(%s -> %s, %s) = %v, want %v", tc.current, tc.target, tc.role, got, tc.want)
			}
		})
	}
}

// Source precedence: a bad source must report ErrInvalidTransition even when
// the role would also be rejected, so clients see the more specific failure.
func TestCheckTransitionSourceCheckedBeforeRole(t *testing.T) {
	err := CheckTransition(model.StatusClosed, model.StatusResolved, model.RoleStudent)
	if err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCanRead(t *testing.T) {
	deptA, deptB := uint64(1), uint64(2)
	c := &model.Complaint{ID: 9, SubmittedBy: 42, DepartmentID: deptA}

	cases := []struct {
		name  string
		actor Actor
		want  error
	}{
		{"submitter reads own", Actor{UserID: 42, Role: model.RoleStudent}, nil},
		{"other student denied", Actor{UserID: 43, Role: model.RoleStudent}, ErrAccessDenied},
		{"staff same department", Actor{UserID: 7, Role: model.RoleStaff, Department: &deptA}, nil},
		{"staff other department", Actor{UserID: 7, Role: model.RoleStaff, Department: &deptB}, ErrAccessDenied},
		{"staff without department", Actor{UserID: 7, Role: model.RoleStaff}, ErrAccessDenied},
		{"admin reads anything", Actor{UserID: 1, Role: model.RoleAdmin}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanRead(tc.actor, c); got != tc.want {
				t.Fatalf("CanRead = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScopeFor(t *testing.T) {
	dept := uint64(3)
	other := uint64(8)

	s := ScopeFor(Actor{UserID: 10, Role: model.RoleStudent}, &other)
	if s.SubmittedBy == nil || *s.SubmittedBy != 10 || s.DepartmentID != nil {
		t.Fatalf("student scope must pin submitted_by, got %+v", s)
	}

	s = ScopeFor(Actor{UserID: 11, Role: model.RoleStaff, Department: &dept}, &other)
	if s.DepartmentID == nil || *s.DepartmentID != dept {
		t.Fatalf("staff scope must pin own department, got %+v", s)
	}

	s = ScopeFor(Actor{UserID: 12, Role: model.RoleStaff}, nil)
	if !s.Empty {
		t.Fatalf("staff without department must see nothing, got %+v", s)
	}

	s = ScopeFor(Actor{UserID: 1, Role: model.RoleAdmin}, &other)
	if s.DepartmentID == nil || *s.DepartmentID != other {
		t.Fatalf("admin may filter by arbitrary department, got %+v", s)
	}
	s = ScopeFor(Actor{UserID: 1, Role: model.RoleAdmin}, nil)
	if s.DepartmentID != nil || s.SubmittedBy != nil || s.Empty {
		t.Fatalf("admin without filter sees everything, got %+v", s)
	}
}

func TestCanDelete(t *testing.T) {
	if err := CanDelete(Actor{Role: model.RoleAdmin}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := CanDelete(Actor{Role: model.RoleStaff}); err != ErrAccessDenied {
		t.Fatalf("staff delete should be denied, got %v", err)
	}
}
