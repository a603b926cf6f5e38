package inventory

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// normalizeItemName folds case and whitespace so "KING  sheet" matches "King Sheet".
func normalizeItemName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	switch normalizeItemName(row[0]) {
	case "item", "item name", "name":
		return true
	}
	return false
}

// cellQuantity reads an optional whole-number cell.
func cellQuantity(row []string, col int) (*int, error) {
	if col >= len(row) {
		return nil, nil
	}
	s := strings.TrimSpace(row[col])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("column %d: %q is not a whole number", col+1, s)
	}
	return &v, nil
}

// setQuantities puts a sheet row's packages/units into the fields of source.
func setQuantities(in *stock.TransactionInput, source models.TransactionSource, packages, units *int) {
	switch source {
	case models.SourceCount:
		in.CountedPackages, in.CountedUnits = packages, units
	case models.SourcePurchase:
		in.PurchasedPackages, in.PurchasedUnits = packages, units
	case models.SourceSoak:
		in.SoakPackages, in.SoakUnits = packages, units
	case models.SourceConsumption:
		in.ConsumedPackages, in.ConsumedUnits = packages, units
	}
}

type ImportRowResult struct {
	Row      int      `json:"row"`
	Item     string   `json:"item"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// POST /api/transactions/import?date=2025-03-09&location_id=1&source=Count&force=false
// Uploads a sheet with columns Item | Packages | Units and records one entry
// per matched row. Rows are independent: a rejected row does not stop the rest.
func ImportSheetHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locationID, err := resolveLocationID(c, queryUint(c, "location_id"))
		if err != nil {
			return err
		}
		date, err := parseDate(c.Query("date"))
		if err != nil {
			return err
		}
		source := models.SourceCount
		if s := c.Query("source"); s != "" {
			source, err = models.ParseSource(s)
			if err != nil || source == models.SourceUnspecified {
				return fiber.NewError(fiber.StatusBadRequest, "source must be Count, Purchase, Soak or Consumption")
			}
		}
		force := c.QueryBool("force", false)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload missing: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload")
		}
		defer file.Close()

		sheet, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read spreadsheet: "+err.Error())
		}
		defer sheet.Close()

		sheets := sheet.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "spreadsheet has no sheets")
		}
		rows, err := sheet.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read sheet: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "spreadsheet is empty")
		}

		items, err := svc.Store().ListItems(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		byName := make(map[string]models.Item, len(items))
		for _, it := range items {
			byName[normalizeItemName(it.Name)] = it
		}

		start := 0
		if isHeaderRow(rows[0]) {
			start = 1
		}

		a, _ := currentActor(c)
		recorded := 0
		unmatched := make([]string, 0)
		results := make([]ImportRowResult, 0)
		for i := start; i < len(rows); i++ {
			row := rows[i]
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			name := strings.TrimSpace(row[0])
			item, ok := byName[normalizeItemName(name)]
			if !ok {
				unmatched = append(unmatched, name)
				continue
			}

			in := stock.TransactionInput{Date: date, ItemID: item.ID, LocationID: locationID, Source: source, Force: force}
			res, err := importRow(c, svc, row, in)
			if err != nil {
				r := ImportRowResult{Row: i + 1, Item: item.Name, Error: err.Error()}
				var warn *stock.CountWarning
				if errors.As(err, &warn) {
					r.Error = "count needs confirmation"
					r.Warnings = warn.Messages
				}
				results = append(results, r)
				continue
			}

			recorded++
			if len(res.Warnings) > 0 || res.Degraded() {
				r := ImportRowResult{Row: i + 1, Item: item.Name, Warnings: res.Warnings}
				for _, f := range res.Failures {
					r.Warnings = append(r.Warnings, fmt.Sprintf("cascade to item %d failed: %v", f.ComponentItemID, f.Err))
				}
				results = append(results, r)
			}
			audit.Record(c.UserContext(), logs, audit.LogOptions{
				LocationID:  &locationID,
				UserID:      a.UserID,
				UserName:    a.Name,
				EntityType:  "transaction",
				EntityID:    res.Transaction.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s imported from %s row %d", source, fileHeader.Filename, i+1),
				After:       toTransactionResponse(res.Transaction),
			})
		}

		if len(unmatched) > 0 {
			log.Printf("import %s: %d rows did not match an item", fileHeader.Filename, len(unmatched))
		}
		return c.JSON(fiber.Map{
			"recorded":        recorded,
			"unmatched_items": unmatched,
			"rows":            results,
			"message":         fmt.Sprintf("%d rows recorded, %d rows did not match an item", recorded, len(unmatched)),
		})
	}
}

func importRow(c *fiber.Ctx, svc *stock.Service, row []string, in stock.TransactionInput) (*stock.WriteResult, error) {
	packages, err := cellQuantity(row, 1)
	if err != nil {
		return nil, err
	}
	units, err := cellQuantity(row, 2)
	if err != nil {
		return nil, err
	}
	if packages == nil && units == nil {
		return nil, errors.New("no quantity given")
	}
	setQuantities(&in, in.Source, packages, units)
	return svc.RecordTransaction(c.UserContext(), in)
}
