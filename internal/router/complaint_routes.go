package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// RegisterComplaints mounts the complaint lifecycle endpoints.  Reads and
// creation are open to every authenticated role; the policy layer narrows
// visibility per caller.  Status changes and remarks are staff/admin,
// deletion is admin only.
func RegisterComplaints(e *echo.Echo, h *handler.ComplaintHandler, accessSecret string, denylist middleware.TokenDenylist) {
	g := e.Group("/api/v1/complaints", middleware.JWTAuth(accessSecret, denylist))

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/history", h.History)
	g.GET("/:id/remarks", h.ListRemarks)
	g.GET("/:id/attachments/:attachmentId", h.DownloadAttachment)

	staff := g.Group("", middleware.RequireRole(string(model.RoleStaff), string(model.RoleAdmin)))
	staff.PATCH("/:id/status", h.UpdateStatus)
	staff.POST("/:id/remarks", h.AddRemark)

	admin := g.Group("", middleware.RequireRole(string(model.RoleAdmin)))
	admin.DELETE("/:id", h.Delete)
}
