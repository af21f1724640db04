package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/httpx"
	"github.com/yeray-yas/ChatApp-sub003/internal/identity"
)

// AuthRequired validates the caller's access token and stores the user
// id in the request context. Tokens arrive as a Bearer header, the
// chat_access cookie, or (for WebSocket clients that cannot set
// headers) the token query parameter.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenString string
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return httpx.Unauthorized(c, "invalid_authorization", "Invalid authorization format")
			}
			tokenString = parts[1]
		} else if cookie := c.Cookies("chat_access"); cookie != "" {
			tokenString = cookie
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return httpx.Unauthorized(c, "missing_access_token", "Missing access token")
		}

		claims, err := identity.ParseToken(tokenString, os.Getenv("JWT_SECRET"))
		if err != nil {
			return httpx.Unauthorized(c, "invalid_access_token", "Invalid or expired token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}
