package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/unit"
)

// Quantity is a balance in total units with its packages/units split.
type Quantity struct {
	TotalUnits int
	Packages   int
	Units      int
	Negative   bool
}

func NewQuantity(total, size int) Quantity {
	packages, units := unit.FromTotalUnits(total, size)
	return Quantity{TotalUnits: total, Packages: packages, Units: units, Negative: total < 0}
}

type ItemStock struct {
	ItemID   uint
	ItemName string
	Quantity
}

type LocationStock struct {
	LocationID   uint
	LocationName string
	Quantity
}

type StreamStock struct {
	Tag      uint
	Anchored bool
	Quantity
}

// DayView is a location's opening balances for a day together with the rows
// recorded on that day, grouped by item.
type DayView struct {
	Date            time.Time
	LocationID      uint
	OpeningBalances map[uint]Quantity
	Transactions    map[uint][]models.Transaction
}

// CurrentStock sums the current balance of every item across all locations.
// A location counts when it is assigned the item or holds rows for it, so stock
// left behind by a removed assignment stays visible.
func (s *Service) CurrentStock(ctx context.Context) ([]ItemStock, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ItemStock, 0, len(items))
	for _, item := range items {
		total := 0
		for _, loc := range locs {
			units, err := s.currentUnits(ctx, item, loc.ID)
			if err != nil {
				return nil, err
			}
			total += units
		}
		out = append(out, ItemStock{ItemID: item.ID, ItemName: item.Name, Quantity: NewQuantity(total, item.PackageSize())})
	}
	return out, nil
}

// StockByLocation is the current balance of one item at every location that
// has it assigned or holds rows for it.
func (s *Service) StockByLocation(ctx context.Context, itemID uint) ([]LocationStock, error) {
	item, err := s.item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	locs, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	active := make(map[uint]bool)
	for _, t := range txns {
		active[t.LocationID] = true
	}

	size := item.PackageSize()
	out := make([]LocationStock, 0, len(locs))
	for _, loc := range locs {
		if !loc.HasItem(itemID) && !active[loc.ID] {
			continue
		}
		units, err := s.currentUnits(ctx, *item, loc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, LocationStock{LocationID: loc.ID, LocationName: loc.Name, Quantity: NewQuantity(units, size)})
	}
	return out, nil
}

// OpeningBalances returns, for each item assigned to the location, its
// consolidated balance strictly before date.
func (s *Service) OpeningBalances(ctx context.Context, locationID uint, date time.Time) (map[uint]Quantity, error) {
	view, err := s.dayView(ctx, locationID, date, false)
	if err != nil {
		return nil, err
	}
	return view.OpeningBalances, nil
}

// CombinedStock answers opening balances and the day's rows from one read of
// the log.
func (s *Service) CombinedStock(ctx context.Context, locationID uint, date time.Time) (*DayView, error) {
	return s.dayView(ctx, locationID, date, true)
}

func (s *Service) dayView(ctx context.Context, locationID uint, date time.Time, withDay bool) (*DayView, error) {
	loc, err := s.location(ctx, locationID)
	if err != nil {
		return nil, err
	}
	day := balance.Day(date)
	items, err := s.itemsByID(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{LocationID: locationID, To: &day})
	if err != nil {
		return nil, err
	}
	byItem := balance.GroupByItem(txns)

	view := &DayView{
		Date:            day,
		LocationID:      locationID,
		OpeningBalances: make(map[uint]Quantity),
	}
	for _, id := range loc.AssignedItemIDs() {
		item, ok := items[id]
		if !ok {
			continue
		}
		size := item.PackageSize()
		view.OpeningBalances[id] = NewQuantity(balance.Consolidate(byItem[id], size, balance.Before(day)), size)
	}

	if withDay {
		view.Transactions = make(map[uint][]models.Transaction)
		for _, t := range txns {
			if balance.Day(t.Date).Equal(day) {
				view.Transactions[t.ItemID] = append(view.Transactions[t.ItemID], t)
			}
		}
	}
	return view, nil
}

// StreamBreakdown replays each stream of an item at a location and returns
// them with their consolidated sum.
func (s *Service) StreamBreakdown(ctx context.Context, itemID, locationID uint) ([]StreamStock, Quantity, error) {
	item, err := s.item(ctx, itemID)
	if err != nil {
		return nil, Quantity{}, err
	}
	if _, err := s.location(ctx, locationID); err != nil {
		return nil, Quantity{}, err
	}
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{ItemID: itemID, LocationID: locationID})
	if err != nil {
		return nil, Quantity{}, err
	}

	size := item.PackageSize()
	total := 0
	var streams []StreamStock
	for _, r := range balance.Breakdown(txns, size, balance.Unbounded()) {
		total += r.Units
		streams = append(streams, StreamStock{Tag: r.Tag, Anchored: r.Anchored, Quantity: NewQuantity(r.Units, size)})
	}
	return streams, NewQuantity(total, size), nil
}

// currentUnits is the cached consolidated balance of the pair.
func (s *Service) currentUnits(ctx context.Context, item models.Item, locationID uint) (int, error) {
	return s.cache.Load(item.ID, locationID, func() (int, error) {
		txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{ItemID: item.ID, LocationID: locationID})
		if err != nil {
			return 0, fmt.Errorf("load log for item %d at location %d: %w", item.ID, locationID, err)
		}
		return balance.Consolidate(txns, item.PackageSize(), balance.Unbounded()), nil
	})
}

func (s *Service) itemsByID(ctx context.Context) (map[uint]models.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
