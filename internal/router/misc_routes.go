package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// RegisterNotifications mounts the per-user notification inbox.
func RegisterNotifications(e *echo.Echo, h *handler.NotificationHandler, accessSecret string, denylist middleware.TokenDenylist) {
	g := e.Group("/api/v1/notifications", middleware.JWTAuth(accessSecret, denylist))
	g.GET("", h.List)
	g.GET("/unread-count", h.UnreadCount)
	g.PATCH("/:id/read", h.MarkRead)
	g.PATCH("/read-all", h.MarkAllRead)
}

// RegisterAnalytics mounts the dashboard aggregates for staff and admins.
func RegisterAnalytics(e *echo.Echo, h *handler.AnalyticsHandler, accessSecret string, denylist middleware.TokenDenylist) {
	g := e.Group("/api/v1/analytics",
		middleware.JWTAuth(accessSecret, denylist),
		middleware.RequireRole(string(model.RoleStaff), string(model.RoleAdmin)),
	)
	g.GET("/summary", h.Summary)
	g.GET("/timeseries", h.TimeSeries)
}

// RegisterChatbot mounts the assistant proxy for any authenticated user,
// behind the shared rate limiter.
func RegisterChatbot(e *echo.Echo, h *handler.ChatbotHandler, accessSecret string, denylist middleware.TokenDenylist, rate echo.MiddlewareFunc) {
	g := e.Group("/api/v1/chatbot", middleware.JWTAuth(accessSecret, denylist), rate)
	g.POST("/message", h.Chat)
}
