package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// TokenDenylist answers whether a token hash has been revoked.
// Implemented by repository.TokenRepo; nil disables the check.
type TokenDenylist interface {
	IsDenylisted(ctx context.Context, tokenHash string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the authenticated identity into the request context under
// the keys "user_id" (uint64), "role" and "email".  The secret must match
// the one access tokens were signed with; issuer and audience are checked
// by the parser.  A missing or malformed header yields UNAUTHORIZED, a
// token that fails verification yields TOKEN_INVALID, and a denylisted
// token yields TOKEN_REVOKED, all as 401.
func JWTAuth(accessSecret string, denylist TokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized,
					utils.Fail(utils.CodeUnauthorized, "missing or invalid authorization header"))
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseToken(accessSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized,
					utils.Fail(utils.CodeTokenInvalid, "invalid or expired access token"))
			}

			if denylist != nil {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
				revoked, err := denylist.IsDenylisted(ctx, utils.HashToken(raw))
				cancel()
				if err == nil && revoked {
					return c.JSON(http.StatusUnauthorized,
						utils.Fail(utils.CodeTokenRevoked, "access token has been revoked"))
				}
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}
