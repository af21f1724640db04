package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yeray-yas/ChatApp-sub003/internal/httpx"
)

// OriginAllowed rejects browser requests from origins outside
// ALLOWED_ORIGINS. Requests without an Origin header (native clients,
// server-to-server) pass through, as does everything when the variable
// is unset.
func OriginAllowed() fiber.Handler {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get("Origin"))
		if origin == "" || len(allowed) == 0 {
			return c.Next()
		}
		if !allowed[origin] {
			return httpx.Forbidden(c, "forbidden_origin", "Origin not allowed")
		}
		return c.Next()
	}
}
