// Package policy centralises the authorization decisions that used to be
// scattered across route handlers: the complaint status transition table
// and the role/ownership scoping rules.  Handlers consult these functions
// and translate the sentinel errors into HTTP responses.
package policy

import (
	"errors"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

var (
	// ErrUnknownStatus means the requested target is not a lifecycle status.
	ErrUnknownStatus = errors.New("unknown target status")
	// ErrInvalidTransition means the complaint's current status is not an
	// allowed source for the requested target.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRoleNotAllowed means the actor's role may not invoke the target.
	ErrRoleNotAllowed = errors.New("role not allowed for transition")
)

// transition describes one row of the lifecycle table: which source states
// may move to the target and which roles may request it.
type transition struct {
	from  []model.Status
	roles []model.Role
}

// transitions is keyed by target status.  open is absent on purpose: it is
// entered only at creation, never by an update.
var transitions = map[model.Status]transition{
	model.StatusInProgress: {
		from:  []model.Status{model.StatusOpen, model.StatusReopened},
		roles: []model.Role{model.RoleStaff, model.RoleAdmin},
	},
	model.StatusResolved: {
		from:  []model.Status{model.StatusInProgress},
		roles: []model.Role{model.RoleStaff, model.RoleAdmin},
	},
	model.StatusClosed: {
		from:  []model.Status{model.StatusOpen, model.StatusInProgress, model.StatusResolved},
		roles: []model.Role{model.RoleAdmin},
	},
	model.StatusReopened: {
		from:  []model.Status{model.StatusResolved, model.StatusClosed},
		roles: []model.Role{model.RoleAdmin},
	},
}

// CheckTransition validates a requested status change.  The checks are
// ordered so callers can map each failure to a distinct error code:
// unknown target, then invalid source, then disallowed role.
func CheckTransition(current, target model.Status, actor model.Role) error {
	t, ok := transitions[target]
	if !ok {
		return ErrUnknownStatus
	}
	found := false
	for _, s := range t.from {
		if s == current {
			found = true
			break
		}
	}
	if !found {
		return ErrInvalidTransition
	}
	for _, r := range t.roles {
		if r == actor {
			return nil
		}
	}
	return ErrRoleNotAllowed
}
