package inventory

import (
	"strconv"
	"time"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

const maxChartPoints = 366

type StockChartPoint struct {
	Label     string           `json:"label"` // first day of the bucket
	From      string           `json:"from"`
	To        string           `json:"to"`
	Closing   QuantityResponse `json:"closing"`
	Purchased int              `json:"purchased_units"`
	Soak      int              `json:"soak_units"`
	Consumed  int              `json:"consumed_units"`
}

type StockChartResponse struct {
	ItemID     uint              `json:"item_id"`
	LocationID uint              `json:"location_id"`
	Period     string            `json:"period"` // daily | weekly | monthly
	From       string            `json:"from"`
	To         string            `json:"to"`
	Points     []StockChartPoint `json:"points"`
}

// chartPeriods builds count consecutive buckets ending on the day end.
// Weekly buckets are rolling 7-day windows, monthly buckets follow the
// calendar and the last one stops at end.
func chartPeriods(period string, count int, end time.Time) []stock.Period {
	end = balance.Day(end)
	out := make([]stock.Period, 0, count)
	for i := count - 1; i >= 0; i-- {
		switch period {
		case "weekly":
			to := end.AddDate(0, 0, -7*i)
			out = append(out, stock.Period{Start: to.AddDate(0, 0, -6), End: to})
		case "monthly":
			first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
			last := first.AddDate(0, 1, -1)
			if last.After(end) {
				last = end
			}
			out = append(out, stock.Period{Start: first, End: last})
		default:
			d := end.AddDate(0, 0, -i)
			out = append(out, stock.Period{Start: d, End: d})
		}
	}
	return out
}

// GET /api/stock/chart?item_id=2&location_id=1&period=weekly&count=8&to=2025-03-31
func StockChartHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID := queryUint(c, "item_id")
		if itemID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "item_id is required")
		}
		locationID, err := resolveLocationID(c, queryUint(c, "location_id"))
		if err != nil {
			return err
		}

		period := c.Query("period", "daily")
		var count int
		switch period {
		case "weekly":
			count = 8
		case "monthly":
			count = 12
		default:
			period = "daily"
			count = 7
		}
		if s := c.Query("count"); s != "" {
			count, err = strconv.Atoi(s)
			if err != nil || count <= 0 || count > maxChartPoints {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
		}

		end := balance.Day(time.Now().UTC())
		if s := c.Query("to"); s != "" {
			if end, err = parseDate(s); err != nil {
				return err
			}
		}

		periods := chartPeriods(period, count, end)
		history, err := svc.BalanceHistory(c.UserContext(), *itemID, locationID, periods)
		if err != nil {
			return stockError(c, err)
		}

		points := make([]StockChartPoint, 0, len(history))
		for _, h := range history {
			points = append(points, StockChartPoint{
				Label:     balance.FormatDay(h.Start),
				From:      balance.FormatDay(h.Start),
				To:        balance.FormatDay(h.End),
				Closing:   toQuantity(h.Closing),
				Purchased: h.Purchased,
				Soak:      h.Soak,
				Consumed:  h.Consumed,
			})
		}
		return respond(c, fiber.StatusOK, StockChartResponse{
			ItemID:     *itemID,
			LocationID: locationID,
			Period:     period,
			From:       balance.FormatDay(periods[0].Start),
			To:         balance.FormatDay(periods[len(periods)-1].End),
			Points:     points,
		})
	}
}
