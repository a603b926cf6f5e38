package inventory

import (
	"fmt"
	"time"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type TransactionRequest struct {
	Date       string `json:"date"` // "2025-03-09"
	ItemID     uint   `json:"item_id"`
	LocationID *uint  `json:"location_id"` // admin only, staff use their own
	Source     string `json:"source"`      // optional, inferred from the quantities

	CountedUnits      *int `json:"counted_units"`
	CountedPackages   *int `json:"counted_packages"`
	PurchasedUnits    *int `json:"purchased_units"`
	PurchasedPackages *int `json:"purchased_packages"`
	SoakUnits         *int `json:"soak_units"`
	SoakPackages      *int `json:"soak_packages"`
	ConsumedUnits     *int `json:"consumed_units"`
	ConsumedPackages  *int `json:"consumed_packages"`

	Force bool `json:"force"` // accept a count warning
}

type TransactionResponse struct {
	ID           uint                     `json:"id"`
	Date         string                   `json:"date"`
	ItemID       uint                     `json:"item_id"`
	LocationID   uint                     `json:"location_id"`
	ParentItemID *uint                    `json:"parent_item_id"` // bundle that produced the row, null for direct entries
	Source       models.TransactionSource `json:"source"`

	CountedUnits      *int `json:"counted_units"`
	CountedPackages   *int `json:"counted_packages"`
	PurchasedUnits    *int `json:"purchased_units"`
	PurchasedPackages *int `json:"purchased_packages"`
	SoakUnits         *int `json:"soak_units"`
	SoakPackages      *int `json:"soak_packages"`
	ConsumedUnits     *int `json:"consumed_units"`
	ConsumedPackages  *int `json:"consumed_packages"`

	CascadeID string `json:"cascade_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CascadeFailureResponse struct {
	ItemID uint   `json:"item_id"`
	Error  string `json:"error"`
}

type WriteResponse struct {
	Transaction     TransactionResponse      `json:"transaction"`
	Children        []TransactionResponse    `json:"children"`
	Warnings        []string                 `json:"warnings"`
	CascadeFailures []CascadeFailureResponse `json:"cascade_failures,omitempty"`
}

func toTransactionResponse(t models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID,
		Date:              balance.FormatDay(t.Date),
		ItemID:            t.ItemID,
		LocationID:        t.LocationID,
		Source:            t.Source,
		CountedUnits:      t.CountedUnits,
		CountedPackages:   t.CountedPackages,
		PurchasedUnits:    t.PurchasedUnits,
		PurchasedPackages: t.PurchasedPackages,
		SoakUnits:         t.SoakUnits,
		SoakPackages:      t.SoakPackages,
		ConsumedUnits:     t.ConsumedUnits,
		ConsumedPackages:  t.ConsumedPackages,
		CascadeID:         t.CascadeID,
		CreatedAt:         t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.IsCascaded() {
		tag := t.StreamTag
		resp.ParentItemID = &tag
	}
	return resp
}

func toTransactionResponses(txns []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toWriteResponse(res *stock.WriteResult) WriteResponse {
	resp := WriteResponse{
		Transaction: toTransactionResponse(res.Transaction),
		Children:    toTransactionResponses(res.Children),
		Warnings:    res.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for _, f := range res.Failures {
		resp.CascadeFailures = append(resp.CascadeFailures, CascadeFailureResponse{ItemID: f.ComponentItemID, Error: f.Err.Error()})
	}
	return resp
}

// writeStatus is 207 when the bundle row was stored but some cascaded rows were not.
func writeStatus(res *stock.WriteResult, ok int) int {
	if res.Degraded() {
		return fiber.StatusMultiStatus
	}
	return ok
}

func (b TransactionRequest) input(date time.Time, itemID, locationID uint) (stock.TransactionInput, error) {
	in := stock.TransactionInput{
		Date:              date,
		ItemID:            itemID,
		LocationID:        locationID,
		CountedUnits:      b.CountedUnits,
		CountedPackages:   b.CountedPackages,
		PurchasedUnits:    b.PurchasedUnits,
		PurchasedPackages: b.PurchasedPackages,
		SoakUnits:         b.SoakUnits,
		SoakPackages:      b.SoakPackages,
		ConsumedUnits:     b.ConsumedUnits,
		ConsumedPackages:  b.ConsumedPackages,
		Force:             b.Force,
	}
	if b.Source != "" {
		src, err := models.ParseSource(b.Source)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		in.Source = src
	}
	return in, nil
}

// POST /api/transactions
func CreateTransactionHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ItemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item_id is required")
		}
		locationID, err := resolveLocationID(c, body.LocationID)
		if err != nil {
			return err
		}
		date, err := parseDate(body.Date)
		if err != nil {
			return err
		}
		in, err := body.input(date, body.ItemID, locationID)
		if err != nil {
			return err
		}

		res, err := svc.RecordTransaction(c.UserContext(), in)
		if err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			LocationID:  &locationID,
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "transaction",
			EntityID:    res.Transaction.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s entry for item %d on %s", res.Transaction.Source, res.Transaction.ItemID, balance.FormatDay(date)),
			After:       toTransactionResponse(res.Transaction),
		})

		return c.Status(writeStatus(res, fiber.StatusCreated)).JSON(toWriteResponse(res))
	}
}

// GET /api/transactions?location_id=1&item_id=2&from=2025-03-01&to=2025-03-31
func ListTransactionsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := currentActor(c)
		if err != nil {
			return err
		}

		var f models.TransactionFilter
		if id := queryUint(c, "location_id"); id != nil {
			f.LocationID = *id
		}
		if a.Role == models.RoleStaff && a.LocationID != nil {
			f.LocationID = *a.LocationID
		}
		if id := queryUint(c, "item_id"); id != nil {
			f.ItemID = *id
		}
		if s := c.Query("from"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return err
			}
			f.From = &d
		}
		if s := c.Query("to"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return err
			}
			f.To = &d
		}

		txns, err := svc.Store().ListTransactions(c.UserContext(), f)
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, toTransactionResponses(txns))
	}
}

// PUT /api/transactions/:id replaces the quantities of a row. Item and
// location stay fixed.
func UpdateTransactionHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body TransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, err := svc.Store().GetTransaction(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		if _, err := resolveLocationID(c, &before.LocationID); err != nil {
			return err
		}

		var date time.Time
		if body.Date != "" {
			if date, err = parseDate(body.Date); err != nil {
				return err
			}
		}
		in, err := body.input(date, before.ItemID, before.LocationID)
		if err != nil {
			return err
		}

		res, err := svc.EditTransaction(c.UserContext(), id, in)
		if err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			LocationID:  &before.LocationID,
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "transaction",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("entry for item %d edited", before.ItemID),
			Before:      toTransactionResponse(*before),
			After:       toTransactionResponse(res.Transaction),
		})

		return c.Status(writeStatus(res, fiber.StatusOK)).JSON(toWriteResponse(res))
	}
}

// DELETE /api/transactions/:id. Rows cascaded from a deleted bundle row are
// left in place and returned as orphaned_children.
func DeleteTransactionHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		before, err := svc.Store().GetTransaction(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}
		if _, err := resolveLocationID(c, &before.LocationID); err != nil {
			return err
		}

		res, err := svc.DeleteTransaction(c.UserContext(), id)
		if err != nil {
			return stockError(c, err)
		}

		a, _ := currentActor(c)
		audit.Record(c.UserContext(), logs, audit.LogOptions{
			LocationID:  &before.LocationID,
			UserID:      a.UserID,
			UserName:    a.Name,
			EntityType:  "transaction",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("entry for item %d on %s deleted, %d cascaded rows orphaned", before.ItemID, balance.FormatDay(before.Date), len(res.Orphaned)),
			Before:      toTransactionResponse(res.Transaction),
		})

		return c.JSON(fiber.Map{
			"deleted":           toTransactionResponse(res.Transaction),
			"orphaned_children": toTransactionResponses(res.Orphaned),
		})
	}
}
