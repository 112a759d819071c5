// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const UserIDKey = "user_id"

// UserContextMiddleware puts the caller's uid, as forwarded by the gateway in
// X-User-ID, into c.Locals(UserIDKey). With requireHeader off, the `uid`
// query parameter is accepted instead.
func UserContextMiddleware(requireHeader bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" && !requireHeader {
			userID = strings.TrimSpace(c.Query("uid"))
		}
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the uid stored by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(UserIDKey).(string)
	return uid
}
