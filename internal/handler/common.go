// Package handler wires HTTP routes to repositories.  Every handler binds
// input, runs the policy checks, calls the repository layer with a bounded
// context, and serializes the uniform response envelope.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/policy"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
)

// dbTimeout bounds every repository call made on behalf of one request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUserID reads the authenticated user id set by the JWT middleware.
func currentUserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// currentRole reads the authenticated role set by the JWT middleware.
func currentRole(c echo.Context) model.Role {
	if v, ok := c.Get("role").(string); ok {
		return model.Role(v)
	}
	return ""
}

// actorFor builds the policy actor for the request.  The token does not
// carry the department, so staff actors need one user lookup.
func actorFor(ctx context.Context, c echo.Context, users *repository.UserRepo) (policy.Actor, error) {
	a := policy.Actor{UserID: currentUserID(c), Role: currentRole(c)}
	if a.Role == model.RoleStaff {
		u, err := users.GetByID(ctx, a.UserID)
		if err != nil {
			return a, err
		}
		a.Department = u.DepartmentID
	}
	return a, nil
}

// pathID parses the named numeric path parameter; 0 means invalid.
func pathID(c echo.Context, name string) uint64 {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// queryUint parses an optional numeric query parameter.
func queryUint(c echo.Context, name string) *uint64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// pageParams parses page/limit with the listing defaults.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
