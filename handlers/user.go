// handlers/user.go
package handlers

import (
	"connect4-server/middleware"
	"connect4-server/services"

	"github.com/gofiber/fiber/v2"
)

type createUserRequest struct {
	Username string `json:"username" query:"username"`
	Email    string `json:"email" query:"email"`
}

func SetupUserRoutes(router fiber.Router, users *services.UserService, games *services.GameService) {
	router.Post("/user", func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid query")
		}
		if len(c.Body()) > 0 {
			var body createUserRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
			}
			if body.Username != "" {
				req.Username = body.Username
			}
			if body.Email != "" {
				req.Email = body.Email
			}
		}

		user, err := users.CreateUser(c.UserContext(), middleware.UserID(c), req.Username, req.Email)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	router.Get("/user", func(c *fiber.Ctx) error {
		user, err := users.GetUser(c.UserContext(), c.Query("uid", middleware.UserID(c)))
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Put("/user", func(c *fiber.Ctx) error {
		user, err := users.UpdateBio(c.UserContext(), middleware.UserID(c), c.Query("bio"))
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Delete("/user", func(c *fiber.Ctx) error {
		user, err := users.DeleteUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Get("/user/games", func(c *fiber.Ctx) error {
		list, err := games.ListGamesForUser(c.UserContext(), c.Query("uid", middleware.UserID(c)), c.QueryInt("limit", 20))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})
}
