package stock

import (
	"context"

	"github.com/shopspring/decimal"
)

// GroupStock is an item's balance summed over one report group.
type GroupStock struct {
	Group string
	Quantity
}

type ParLevelRow struct {
	ItemID   uint
	ItemName string
	KingQty  int
	QueenQty int
	Required int
	Groups   []GroupStock
	Total    Quantity
	// ParLevel is nil when no rooms require the item.
	ParLevel *decimal.Decimal
}

type ParLevelReport struct {
	KingRooms  int
	QueenRooms int
	Groups     []string
	Rows       []ParLevelRow
}

// ParLevel is 1 + total/required: how many full room turns the stock covers,
// counting the set already in the rooms. Nil when required is 0.
func ParLevel(total, required int) *decimal.Decimal {
	if required == 0 {
		return nil
	}
	v := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(required))))
	return &v
}

// ParLevelReport covers every item with a per-room requirement. Locations are
// grouped by category, or by name when they have none.
func (s *Service) ParLevelReport(ctx context.Context) (*ParLevelReport, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]uint)
	for _, loc := range locs {
		groups[loc.GroupKey()] = append(groups[loc.GroupKey()], loc.ID)
	}
	report := &ParLevelReport{
		KingRooms:  settings.KingRoomCount,
		QueenRooms: settings.QueenRoomCount,
		Groups:     sortedKeys(groups),
	}

	for _, item := range items {
		if !item.HasRoomRequirement() {
			continue
		}
		size := item.PackageSize()
		required := item.KingQty*settings.KingRoomCount + item.QueenQty*settings.QueenRoomCount
		row := ParLevelRow{
			ItemID:   item.ID,
			ItemName: item.Name,
			KingQty:  item.KingQty,
			QueenQty: item.QueenQty,
			Required: required,
		}
		total := 0
		for _, name := range report.Groups {
			sum := 0
			for _, locID := range groups[name] {
				units, err := s.currentUnits(ctx, item, locID)
				if err != nil {
					return nil, err
				}
				sum += units
			}
			total += sum
			row.Groups = append(row.Groups, GroupStock{Group: name, Quantity: NewQuantity(sum, size)})
		}
		row.Total = NewQuantity(total, size)
		row.ParLevel = ParLevel(total, required)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}
