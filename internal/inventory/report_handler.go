package inventory

import (
	"fmt"

	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const parLevelSheet = "Par Level"

type GroupStockResponse struct {
	Group string `json:"group"`
	QuantityResponse
}

type ParLevelRowResponse struct {
	ItemID     uint                 `json:"item_id"`
	ItemName   string               `json:"item_name"`
	KingQty    int                  `json:"king_qty"`
	QueenQty   int                  `json:"queen_qty"`
	Required   int                  `json:"required"`
	Groups     []GroupStockResponse `json:"groups"`
	TotalUnits int                  `json:"total_units"`
	ParLevel   *string              `json:"par_level"` // decimal string, null when nothing is required
}

type ParLevelResponse struct {
	KingRooms  int                   `json:"king_rooms"`
	QueenRooms int                   `json:"queen_rooms"`
	Groups     []string              `json:"groups"`
	Rows       []ParLevelRowResponse `json:"rows"`
}

func toParLevelResponse(r *stock.ParLevelReport) ParLevelResponse {
	resp := ParLevelResponse{
		KingRooms:  r.KingRooms,
		QueenRooms: r.QueenRooms,
		Groups:     r.Groups,
		Rows:       make([]ParLevelRowResponse, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		out := ParLevelRowResponse{
			ItemID:     row.ItemID,
			ItemName:   row.ItemName,
			KingQty:    row.KingQty,
			QueenQty:   row.QueenQty,
			Required:   row.Required,
			TotalUnits: row.Total.TotalUnits,
		}
		for _, g := range row.Groups {
			out.Groups = append(out.Groups, GroupStockResponse{Group: g.Group, QuantityResponse: toQuantity(g.Quantity)})
		}
		if row.ParLevel != nil {
			s := row.ParLevel.StringFixed(2)
			out.ParLevel = &s
		}
		resp.Rows = append(resp.Rows, out)
	}
	return resp
}

// GET /api/reports/par-level
func ParLevelHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.ParLevelReport(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}
		return respond(c, fiber.StatusOK, toParLevelResponse(report))
	}
}

// GET /api/reports/par-level.xlsx
func ParLevelExcelHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.ParLevelReport(c.UserContext())
		if err != nil {
			return stockError(c, err)
		}

		f, err := parLevelWorkbook(report)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build spreadsheet")
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not write spreadsheet")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="par-level.xlsx"`)
		return c.Send(buf.Bytes())
	}
}

// parLevelWorkbook lays the report out as one sheet: item, requirements, a
// column per location group, total and par level.
func parLevelWorkbook(r *stock.ParLevelReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", parLevelSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := []any{"Item", "King", "Queen", "Required"}
	for _, g := range r.Groups {
		header = append(header, g)
	}
	header = append(header, "Total", "Par Level")

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(parLevelSheet, cell, v)
	}

	for i, h := range header {
		if err := set(i+1, 1, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(parLevelSheet, "A1", last, bold)
	}

	for i, row := range r.Rows {
		values := []any{row.ItemName, row.KingQty, row.QueenQty, row.Required}
		for _, g := range row.Groups {
			values = append(values, g.TotalUnits)
		}
		values = append(values, row.Total.TotalUnits)
		if row.ParLevel != nil {
			values = append(values, row.ParLevel.Round(2).InexactFloat64())
		} else {
			values = append(values, "")
		}
		for j, v := range values {
			if err := set(j+1, i+2, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
		}
	}

	footer := len(r.Rows) + 3
	_ = set(1, footer, fmt.Sprintf("King rooms: %d, Queen rooms: %d", r.KingRooms, r.QueenRooms))
	return f, nil
}
