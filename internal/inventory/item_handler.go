package inventory

import (
	"fmt"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type ComponentRequest struct {
	ItemID          uint `json:"item_id"`
	QuantityPerUnit int  `json:"quantity_per_unit"`
}

type ItemRequest struct {
	Name              string             `json:"name"`
	PackageDescriptor string             `json:"package_descriptor"` // "Case of 12"
	IsBundle          bool               `json:"is_bundle"`
	KingQty           int                `json:"king_qty"`
	QueenQty          int                `json:"queen_qty"`
	Components        []ComponentRequest `json:"components"`
}

type ItemResponse struct {
	ID                uint               `json:"id"`
	Name              string             `json:"name"`
	PackageDescriptor string             `json:"package_descriptor"`
	PackageSize       int                `json:"package_size"`
	IsBundle          bool               `json:"is_bundle"`
	KingQty           int                `json:"king_qty"`
	QueenQty          int                `json:"queen_qty"`
	Components        []ComponentRequest `json:"components"`
}

func toItemResponse(it models.Item) ItemResponse {
	resp := ItemResponse{
		ID:                it.ID,
		Name:              it.Name,
		PackageDescriptor: it.PackageDescriptor,
		PackageSize:       it.PackageSize(),
		IsBundle:          it.IsBundle,
		KingQty:           it.KingQty,
		QueenQty:          it.QueenQty,
		Components:        make([]ComponentRequest, 0, len(it.Components)),
	}
	for _, c := range it.Components {
		resp.Components = append(resp.Components, ComponentRequest{ItemID: c.ComponentItemID, QuantityPerUnit: c.QuantityPerUnit})
	}
	return resp
}

func (b ItemRequest) apply(it *models.Item) {
	it.Name = b.Name
	it.PackageDescriptor = b.PackageDescriptor
	it.IsBundle = b.IsBundle
	it.KingQty = b.KingQty
	it.QueenQty = b.QueenQty
	it.Components = make([]models.ItemComponent, 0, len(b.Components))
	for _, c := range b.Components {
		it.Components = append(it.Components, models.ItemComponent{ComponentItemID: c.ItemID, QuantityPerUnit: c.QuantityPerUnit})
	}
}

// GET /api/items
func ListItemsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Store().ListItems(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		resp := make([]ItemResponse, 0, len(items))
		for _, it := range items {
			resp = append(resp, toItemResponse(it))
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

// GET /api/items/:id
func GetItemHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		it, err := svc.Store().GetItem(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, toItemResponse(*it))
	}
}

// POST /api/admin/items
func CreateItemHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		var it models.Item
		body.apply(&it)
		if err := svc.SaveItem(c.UserContext(), &it); err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "item",
			EntityID:    it.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("item %q created", it.Name),
			After:       toItemResponse(it),
		})
		return c.Status(fiber.StatusCreated).JSON(toItemResponse(it))
	}
}

// PUT /api/admin/items/:id replaces the item including its component list.
func UpdateItemHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		it, err := svc.Store().GetItem(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		before := toItemResponse(*it)
		body.apply(it)
		if err := svc.SaveItem(c.UserContext(), it); err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "item",
			EntityID:    it.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("item %q updated", it.Name),
			Before:      before,
			After:       toItemResponse(*it),
		})
		return c.JSON(toItemResponse(*it))
	}
}
