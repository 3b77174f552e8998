package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles.  Roles correspond to the values
// carried in the token's role claim ("student", "staff", "admin").  It
// assumes JWTAuth already populated the context; a missing or unlisted
// role aborts with 403 FORBIDDEN.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden,
					utils.Fail(utils.CodeForbidden, "insufficient permissions for this action"))
			}
			return next(c)
		}
	}
}
