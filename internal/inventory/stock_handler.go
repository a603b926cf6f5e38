package inventory

import (
	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type QuantityResponse struct {
	TotalUnits    int  `json:"total_units"`
	TotalPackages int  `json:"total_packages"`
	Units         int  `json:"units"` // remainder after whole packages
	Negative      bool `json:"negative"`
}

func toQuantity(q stock.Quantity) QuantityResponse {
	return QuantityResponse{TotalUnits: q.TotalUnits, TotalPackages: q.Packages, Units: q.Units, Negative: q.Negative}
}

type OpeningBalanceResponse struct {
	OpeningUnits    int  `json:"opening_units"`
	OpeningPackages int  `json:"opening_packages"`
	RemainderUnits  int  `json:"remainder_units"`
	Negative        bool `json:"negative"`
}

func toOpening(m map[uint]stock.Quantity) map[uint]OpeningBalanceResponse {
	out := make(map[uint]OpeningBalanceResponse, len(m))
	for id, q := range m {
		out[id] = OpeningBalanceResponse{OpeningUnits: q.TotalUnits, OpeningPackages: q.Packages, RemainderUnits: q.Units, Negative: q.Negative}
	}
	return out
}

type ItemStockResponse struct {
	ItemID   uint   `json:"item_id"`
	ItemName string `json:"item_name"`
	QuantityResponse
}

type LocationStockResponse struct {
	LocationID   uint   `json:"location_id"`
	LocationName string `json:"location_name"`
	QuantityResponse
}

type StreamResponse struct {
	ParentItemID *uint `json:"parent_item_id"` // null for the main stream
	Anchored     bool  `json:"anchored"`
	QuantityResponse
}

// GET /api/stock/opening-balance?date=2025-03-09&location_id=1
func OpeningBalanceHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locationID, err := resolveLocationID(c, queryUint(c, "location_id"))
		if err != nil {
			return err
		}
		date, err := parseDate(c.Query("date"))
		if err != nil {
			return err
		}
		opening, err := svc.OpeningBalances(c.UserContext(), locationID, date)
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, toOpening(opening))
	}
}

// GET /api/stock/combined?date=2025-03-09&location_id=1
func CombinedStockHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locationID, err := resolveLocationID(c, queryUint(c, "location_id"))
		if err != nil {
			return err
		}
		date, err := parseDate(c.Query("date"))
		if err != nil {
			return err
		}
		view, err := svc.CombinedStock(c.UserContext(), locationID, date)
		if err != nil {
			return stockError(c, err)
		}

		txns := make(map[uint][]TransactionResponse, len(view.Transactions))
		for itemID, rows := range view.Transactions {
			txns[itemID] = toTransactionResponses(rows)
		}
		return respond(c, fiber.StatusOK, fiber.Map{
			"date":             balance.FormatDay(view.Date),
			"location_id":      view.LocationID,
			"opening_balances": toOpening(view.OpeningBalances),
			"transactions":     txns,
		})
	}
}

// GET /api/stock/current
func CurrentStockHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.CurrentStock(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		resp := make([]ItemStockResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, ItemStockResponse{ItemID: r.ItemID, ItemName: r.ItemName, QuantityResponse: toQuantity(r.Quantity)})
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

// GET /api/stock/items/:id
func StockByItemHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID, err := paramID(c)
		if err != nil {
			return err
		}
		rows, err := svc.StockByLocation(c.UserContext(), itemID)
		if err != nil {
			return stockError(c, err)
		}
		resp := make([]LocationStockResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, LocationStockResponse{LocationID: r.LocationID, LocationName: r.LocationName, QuantityResponse: toQuantity(r.Quantity)})
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

// GET /api/stock/streams?item_id=2&location_id=1
func StreamBreakdownHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID := queryUint(c, "item_id")
		if itemID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "item_id is required")
		}
		locationID, err := resolveLocationID(c, queryUint(c, "location_id"))
		if err != nil {
			return err
		}
		streams, total, err := svc.StreamBreakdown(c.UserContext(), *itemID, locationID)
		if err != nil {
			return stockError(c, err)
		}

		resp := make([]StreamResponse, 0, len(streams))
		for _, s := range streams {
			r := StreamResponse{Anchored: s.Anchored, QuantityResponse: toQuantity(s.Quantity)}
			if s.Tag != 0 {
				tag := s.Tag
				r.ParentItemID = &tag
			}
			resp = append(resp, r)
		}
		return respond(c, fiber.StatusOK, fiber.Map{
			"item_id":     *itemID,
			"location_id": locationID,
			"streams":     resp,
			"total":       toQuantity(total),
		})
	}
}
