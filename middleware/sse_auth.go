// middleware/sse_auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// SSEAuthMiddleware checks the service token passed as the `token` query
// parameter, since EventSource clients cannot set headers. A bearer header
// is accepted too. An empty expectedToken disables the check.
func SSEAuthMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			return c.Next()
		}
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		}
		if token == "" || !tokenMatches(token, expectedToken) {
			log.Warnf("[SSEAuth] rejected stream request for %s from %s", c.Path(), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
