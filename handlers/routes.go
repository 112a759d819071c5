// handlers/routes.go
package handlers

import (
	"connect4-server/broadcast"
	"connect4-server/config"
	"connect4-server/middleware"
	"connect4-server/services"

	"github.com/gofiber/fiber/v2"
)

const APIRoot = "/api/v1"

type Services struct {
	Users       *services.UserService
	Games       *services.GameService
	Matchmaking *services.MatchmakingService
	Hub         *broadcast.Hub
}

// SetupRoutes mounts the API under APIRoot. The stream route is registered
// ahead of the gateway check because it authenticates by query token.
func SetupRoutes(app *fiber.App, cfg *config.Config, svc Services) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group(APIRoot)
	SetupStreamRoutes(api, cfg.ServiceToken, svc.Games, svc.Hub)

	secured := api.Group("",
		middleware.GatewayAuthMiddleware(cfg.ServiceToken),
		middleware.UserContextMiddleware(cfg.AuthRequired),
	)
	SetupUserRoutes(secured, svc.Users, svc.Games)
	SetupMatchmakingRoutes(secured, svc.Matchmaking)
	SetupGameRoutes(secured, svc.Games)
}
