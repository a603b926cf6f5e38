// Package balance derives stock balances from the transaction log.
//
// Nothing here holds state: every balance is a replay of an immutable slice of
// log rows. A Count row is an anchor that resets its stream to an absolute
// value; every other row is a delta applied on top of the latest anchor.
package balance

import (
	"sort"
	"time"

	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/unit"
)

// Result is the outcome of replaying one stream.
type Result struct {
	Units      int
	Anchored   bool
	AnchorDate time.Time
}

// Balance is a stream's opening and closing position for one day.
type Balance struct {
	OpeningUnits int
	ClosingUnits int
}

// Replay computes a stream's balance in total units at the cutoff.
//
// Rows are ordered by (date, created_at). The last Count inside the cutoff is
// the anchor, so of two same-day counts the later insert wins. Deltas dated
// after the anchor day are then summed; deltas on the anchor day are already
// contained in the counted closing value. Without any Count the anchor is 0.
// The input slice is not modified.
func Replay(txns []models.Transaction, size int, cutoff Cutoff) Result {
	ordered := Sorted(txns)

	var res Result
	for _, t := range ordered {
		if !cutoff.Includes(t.Date) {
			break
		}
		if t.Source.IsAnchor() {
			res.Units = CountedTotal(t, size)
			res.Anchored = true
			res.AnchorDate = Day(t.Date)
		}
	}

	for _, t := range ordered {
		if !cutoff.Includes(t.Date) {
			break
		}
		if t.Source.IsAnchor() {
			continue
		}
		if res.Anchored && !Day(t.Date).After(res.AnchorDate) {
			continue
		}
		res.Units += Delta(t, size)
	}
	return res
}

// StreamBalance returns the opening (strictly before day) and closing
// (through day) balances of one stream.
func StreamBalance(txns []models.Transaction, size int, day time.Time) Balance {
	return Balance{
		OpeningUnits: Replay(txns, size, Before(day)).Units,
		ClosingUnits: Replay(txns, size, Through(day)).Units,
	}
}

// Sorted returns a copy ordered by date, then created_at, then id.
func Sorted(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// CountedTotal is the absolute quantity of a Count row.
func CountedTotal(t models.Transaction, size int) int {
	return unit.ToTotalUnits(Int(t.CountedPackages), Int(t.CountedUnits), size)
}

// Delta is purchased + soak - consumed in total units.
func Delta(t models.Transaction, size int) int {
	purchased := unit.ToTotalUnits(Int(t.PurchasedPackages), Int(t.PurchasedUnits), size)
	soak := unit.ToTotalUnits(Int(t.SoakPackages), Int(t.SoakUnits), size)
	consumed := unit.ToTotalUnits(Int(t.ConsumedPackages), Int(t.ConsumedUnits), size)
	return purchased + soak - consumed
}

// Int reads an optional quantity field, nil as zero.
func Int(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
