package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/split-bill/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its subject, email
// and role in the request context for RequireRole and the handlers.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			c.Set(KeyUserID, claims.UserID)
			c.Set(KeyEmail, claims.Email)
			c.Set(KeyRole, claims.Role)
			return next(c)
		}
	}
}
