package inventory

import (
	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type SettingsRequest struct {
	KingRoomCount  int `json:"king_room_count"`
	QueenRoomCount int `json:"queen_room_count"`
}

// GET /api/settings
func GetSettingsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Store().GetSettings(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, SettingsRequest{KingRoomCount: s.KingRoomCount, QueenRoomCount: s.QueenRoomCount})
	}
}

// PUT /api/admin/settings
func UpdateSettingsHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.KingRoomCount < 0 || body.QueenRoomCount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "room counts must not be negative")
		}

		before, err := svc.Store().GetSettings(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		s := models.Setting{KingRoomCount: body.KingRoomCount, QueenRoomCount: body.QueenRoomCount}
		if err := svc.Store().SaveSettings(c.UserContext(), &s); err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "settings",
			EntityID:    s.ID,
			Action:      models.AuditActionUpdate,
			Description: "room counts updated",
			Before:      SettingsRequest{KingRoomCount: before.KingRoomCount, QueenRoomCount: before.QueenRoomCount},
			After:       body,
		})
		return c.JSON(body)
	}
}
