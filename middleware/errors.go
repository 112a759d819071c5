// middleware/errors.go
package middleware

import (
	"errors"

	"connect4-server/connect4"
	"connect4-server/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, connect4.ErrIllegalMove), errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, connect4.ErrNotYourTurn), errors.Is(err, connect4.ErrNotParticipant),
		errors.Is(err, services.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, connect4.ErrGameOver), errors.Is(err, services.ErrAlreadyQueued),
		errors.Is(err, services.ErrAlreadyPaired), errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		log.Errorf("[API] %s %s: %v", c.Method(), c.Path(), err)
		msg = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
