// handlers/matchmaking.go
package handlers

import (
	"connect4-server/middleware"
	"connect4-server/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchmakingRoutes(router fiber.Router, queue *services.MatchmakingService) {
	router.Post("/matchmaking", func(c *fiber.Ctx) error {
		ticket, err := queue.CreateTicket(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(ticket)
	})

	router.Get("/matchmaking", func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		ticket, err := queue.PollTicket(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(ticket)
	})

	router.Delete("/matchmaking", func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		ticket, err := queue.DeleteTicket(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(ticket)
	})
}

func requireQuery(c *fiber.Ctx, key string) (string, error) {
	v := c.Query(key)
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing query parameter "+key)
	}
	return v, nil
}
