package handlers

import (
	"errors"
	"log"

	"matchmaking-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoomRoutes wires the thin operational surface over the room
// lifecycle. Every response is a {message, data} / {message, error}
// envelope.
func SetupRoomRoutes(app *fiber.App, rooms *services.RoomService) {
	room := app.Group("/room")

	room.Post("/join", func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"userId"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"message": "invalid JSON body", "error": err.Error()})
		}

		created, err := rooms.JoinRoom(c.Context(), body.UserID)
		if err != nil {
			return errorEnvelope(c, "Failed to join room", err)
		}
		return c.JSON(fiber.Map{"message": "Room created successfully", "data": created})
	})

	room.Post("/ping", func(c *fiber.Ctx) error {
		var body struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"message": "invalid JSON body", "error": err.Error()})
		}

		if err := rooms.Ping(body.RoomID, body.UserID); err != nil {
			return errorEnvelope(c, "Failed to ping room", err)
		}
		return c.JSON(fiber.Map{"message": "Ping received"})
	})

	room.Get("/:userId", func(c *fiber.Ctx) error {
		current, err := rooms.GetRoom(c.Params("userId"))
		if err != nil {
			return errorEnvelope(c, "Failed to fetch room", err)
		}
		return c.JSON(fiber.Map{"message": "Room fetched successfully", "data": current})
	})

	room.Get("/:userId/queue-time", func(c *fiber.Ctx) error {
		estimate, err := rooms.EstimatedQueueTime(c.Params("userId"))
		if err != nil {
			return errorEnvelope(c, "Failed to estimate queue time", err)
		}
		if estimate == nil {
			return c.JSON(fiber.Map{"message": "No historical sample for this tier yet"})
		}
		return c.JSON(fiber.Map{"message": "Queue time estimated", "data": estimate})
	})

	room.Delete("/:userId", func(c *fiber.Ctx) error {
		if err := rooms.LeaveRoom(c.Params("userId")); err != nil {
			return errorEnvelope(c, "Failed to leave room", err)
		}
		return c.JSON(fiber.Map{"message": "Left the matchmaking queue"})
	})
}

func errorEnvelope(c *fiber.Ctx, message string, err error) error {
	status := 500
	switch {
	case errors.Is(err, services.ErrValidation):
		status = 400
	case errors.Is(err, services.ErrNotFound):
		status = 404
	default:
		log.Printf("❌ [HTTP] %s: %v", message, err)
	}
	return c.Status(status).JSON(fiber.Map{"message": message, "error": err.Error()})
}
