package inventory

import (
	"fmt"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type LocationRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"` // par-level report group, optional
	ItemIDs  []uint `json:"item_ids"`
}

type LocationResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	ItemIDs  []uint `json:"item_ids"`
}

func toLocationResponse(l models.Location) LocationResponse {
	return LocationResponse{ID: l.ID, Name: l.Name, Category: l.Category, ItemIDs: l.AssignedItemIDs()}
}

func (b LocationRequest) apply(l *models.Location) {
	l.Name = b.Name
	l.Category = b.Category
	l.Assignments = make([]models.LocationItem, 0, len(b.ItemIDs))
	seen := make(map[uint]bool)
	for _, id := range b.ItemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		l.Assignments = append(l.Assignments, models.LocationItem{LocationID: l.ID, ItemID: id})
	}
}

// GET /api/locations
func ListLocationsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locs, err := svc.Store().ListLocations(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		resp := make([]LocationResponse, 0, len(locs))
		for _, l := range locs {
			resp = append(resp, toLocationResponse(l))
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

// GET /api/locations/:id
func GetLocationHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		l, err := svc.Store().GetLocation(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, toLocationResponse(*l))
	}
}

// POST /api/admin/locations
func CreateLocationHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		var l models.Location
		body.apply(&l)
		if err := svc.SaveLocation(c.UserContext(), &l); err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			LocationID:  &l.ID,
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "location",
			EntityID:    l.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("location %q created", l.Name),
			After:       toLocationResponse(l),
		})
		return c.Status(fiber.StatusCreated).JSON(toLocationResponse(l))
	}
}

// PUT /api/admin/locations/:id
func UpdateLocationHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body LocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		l, err := svc.Store().GetLocation(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		before := toLocationResponse(*l)
		body.apply(l)
		if err := svc.SaveLocation(c.UserContext(), l); err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			LocationID:  &l.ID,
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "location",
			EntityID:    l.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("location %q updated", l.Name),
			Before:      before,
			After:       toLocationResponse(*l),
		})
		return c.JSON(toLocationResponse(*l))
	}
}
