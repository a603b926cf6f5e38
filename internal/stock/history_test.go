package stock

import (
	"errors"
	"testing"

	"hotel-supply-backend/internal/store"
)

func TestBalanceHistory(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.sheet.ID, CountedPackages: n(3)})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.sheet.ID, PurchasedPackages: n(1), ConsumedUnits: n(4)})
	f.record(t, TransactionInput{Date: day(3), ItemID: f.kingSet.ID, ConsumedUnits: n(2)})
	f.record(t, TransactionInput{Date: day(5), ItemID: f.sheet.ID, ConsumedUnits: n(6)})

	periods := []Period{
		{Start: day(1), End: day(2)},
		{Start: day(3), End: day(4)},
		{Start: day(5), End: day(6)},
	}
	points, err := f.svc.BalanceHistory(f.ctx, f.sheet.ID, f.linen.ID, periods)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct{ closing, purchased, consumed int }{
		{36, 10, 4}, // 30 counted, +10 -4
		{34, 0, 2},  // two king sets take one sheet each
		{28, 0, 6},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %d", len(points))
	}
	for i, w := range want {
		p := points[i]
		if p.Closing.TotalUnits != w.closing || p.Purchased != w.purchased || p.Consumed != w.consumed {
			t.Errorf("period %d: closing %d purchased %d consumed %d, want %+v", i, p.Closing.TotalUnits, p.Purchased, p.Consumed, w)
		}
	}
	if points[2].Closing.Packages != 2 || points[2].Closing.Units != 8 {
		t.Errorf("closing split = %+v", points[2].Closing)
	}

	if _, err := f.svc.BalanceHistory(f.ctx, 999, f.linen.ID, periods); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: err = %v", err)
	}
}
