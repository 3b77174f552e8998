// Package router registers the HTTP surface: one registration function per
// area, all mounted under /api/v1, plus the operational endpoints.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Complaints    *handler.ComplaintHandler
	Notifications *handler.NotificationHandler
	Analytics     *handler.AnalyticsHandler
	Admin         *handler.AdminHandler
	Chatbot       *handler.ChatbotHandler
}

// Register mounts all routes on e.  rate is the shared limiter middleware;
// denylist backs the revoked-access-token check inside JWTAuth.
func Register(e *echo.Echo, db *sql.DB, h Handlers, accessSecret string, denylist middleware.TokenDenylist, rate echo.MiddlewareFunc) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(middleware.Metrics())

	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	RegisterAuth(e, h.Auth, accessSecret, denylist, rate)
	RegisterComplaints(e, h.Complaints, accessSecret, denylist)
	RegisterNotifications(e, h.Notifications, accessSecret, denylist)
	RegisterAnalytics(e, h.Analytics, accessSecret, denylist)
	RegisterAdmin(e, h.Admin, accessSecret, denylist)
	RegisterChatbot(e, h.Chatbot, accessSecret, denylist, rate)
}
