package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// RegisterAdmin mounts account administration and reference-data routes.
// Department and category listings are readable by every authenticated
// user; everything else is admin only.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, accessSecret string, denylist middleware.TokenDenylist) {
	authed := e.Group("/api/v1", middleware.JWTAuth(accessSecret, denylist))
	authed.GET("/departments", h.ListDepartments)
	authed.GET("/categories", h.ListCategories)

	admin := e.Group("/api/v1/admin",
		middleware.JWTAuth(accessSecret, denylist),
		middleware.RequireRole(string(model.RoleAdmin)),
	)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/staff", h.CreateStaff)
	admin.PATCH("/users/:id/role", h.UpdateRole)
	admin.PATCH("/users/:id/activate", h.SetActive(true))
	admin.PATCH("/users/:id/deactivate", h.SetActive(false))
	admin.POST("/categories", h.CreateCategory)
	admin.PATCH("/categories/:id", h.UpdateCategory)
}
