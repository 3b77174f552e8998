package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/handler"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/middleware"
)

// RegisterAuth mounts the authentication endpoints.  Registration, login
// and refresh are public but rate-limited; profile and password change
// require a valid access token.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, accessSecret string, denylist middleware.TokenDenylist, rate echo.MiddlewareFunc) {
	pub := e.Group("/api/v1/auth", rate)
	pub.POST("/register", h.Register)
	pub.POST("/login", h.Login)
	pub.POST("/refresh", h.Refresh)
	pub.POST("/logout", h.Logout)

	priv := e.Group("/api/v1/auth", middleware.JWTAuth(accessSecret, denylist))
	priv.GET("/profile", h.Profile)
	priv.POST("/change-password", h.ChangePassword)
}
