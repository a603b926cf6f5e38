package stock

import (
	"context"
	"time"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/unit"
)

// Period is an inclusive range of days.
type Period struct {
	Start time.Time
	End   time.Time
}

// HistoryPoint is the closing balance at the end of a period together with
// the movements recorded inside it, over all streams.
type HistoryPoint struct {
	Period
	Closing   Quantity
	Purchased int
	Soak      int
	Consumed  int
}

// BalanceHistory replays the pair once per period from a single read of the log.
func (s *Service) BalanceHistory(ctx context.Context, itemID, locationID uint, periods []Period) ([]HistoryPoint, error) {
	item, err := s.item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.location(ctx, locationID); err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}

	last := balance.Day(periods[len(periods)-1].End)
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{ItemID: itemID, LocationID: locationID, To: &last})
	if err != nil {
		return nil, err
	}

	size := item.PackageSize()
	out := make([]HistoryPoint, 0, len(periods))
	for _, p := range periods {
		start, end := balance.Day(p.Start), balance.Day(p.End)
		point := HistoryPoint{
			Period:  Period{Start: start, End: end},
			Closing: NewQuantity(balance.Consolidate(txns, size, balance.Through(end)), size),
		}
		for _, t := range txns {
			d := balance.Day(t.Date)
			if d.Before(start) || d.After(end) {
				continue
			}
			point.Purchased += unit.ToTotalUnits(balance.Int(t.PurchasedPackages), balance.Int(t.PurchasedUnits), size)
			point.Soak += unit.ToTotalUnits(balance.Int(t.SoakPackages), balance.Int(t.SoakUnits), size)
			point.Consumed += unit.ToTotalUnits(balance.Int(t.ConsumedPackages), balance.Int(t.ConsumedUnits), size)
		}
		out = append(out, point)
	}
	return out, nil
}
