// handlers/game.go
package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"connect4-server/broadcast"
	"connect4-server/connect4"
	"connect4-server/middleware"
	"connect4-server/models"
	"connect4-server/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const keepAliveInterval = 15 * time.Second

func SetupGameRoutes(router fiber.Router, games *services.GameService) {
	router.Get("/game", func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		game, err := games.ViewGame(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(game)
	})

	router.Put("/game", func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		column, err := strconv.Atoi(c.Query("move"))
		if err != nil {
			return fmt.Errorf("%w: move must be a column number", connect4.ErrIllegalMove)
		}
		game, err := games.MakeMove(c.UserContext(), id, middleware.UserID(c), column)
		if err != nil {
			return err
		}
		return c.JSON(game)
	})

	router.Delete("/game", func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		game, err := games.Forfeit(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(game)
	})
}

// SetupStreamRoutes serves GET /game/stream as Server-Sent Events. The
// current state is sent first, then every committed change until the game ends.
func SetupStreamRoutes(router fiber.Router, token string, games *services.GameService, hub *broadcast.Hub) {
	router.Get("/game/stream", middleware.SSEAuthMiddleware(token), func(c *fiber.Ctx) error {
		id, err := requireQuery(c, "uuid")
		if err != nil {
			return err
		}
		updates, cancel := hub.Subscribe(id)
		current, err := games.GetGame(c.UserContext(), id)
		if err != nil {
			cancel()
			return err
		}
		done := c.Context().Done()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()

			if !writeGameEvent(w, current) || connect4.State(current.State).Terminal() {
				return
			}
			for {
				select {
				case g, ok := <-updates:
					if !ok || !writeGameEvent(w, &g) || connect4.State(g.State).Terminal() {
						return
					}
				case <-ticker.C:
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		})
		return nil
	})
}

func writeGameEvent(w *bufio.Writer, g *models.Game) bool {
	payload, err := json.Marshal(g)
	if err != nil {
		log.Errorf("[SSE] encode game %s: %v", g.UUID, err)
		return false
	}
	fmt.Fprintf(w, "event: game\ndata: %s\n\n", payload)
	return w.Flush() == nil
}
