package balance

import (
	"testing"

	"hotel-supply-backend/internal/models"
)

const kingSet = 7

func tagged(t models.Transaction, tag uint) models.Transaction {
	t.StreamTag = tag
	return t
}

func TestPartitionOrder(t *testing.T) {
	streams := Partition([]models.Transaction{
		tagged(count("2025-03-01", 4), 9),
		count("2025-03-01", 50),
		tagged(count("2025-03-01", 2), kingSet),
	})
	if len(streams) != 3 {
		t.Fatalf("got %d streams want 3", len(streams))
	}
	if !streams[0].IsMain() || streams[1].Tag != kingSet || streams[2].Tag != 9 {
		t.Errorf("unexpected order %d %d %d", streams[0].Tag, streams[1].Tag, streams[2].Tag)
	}
}

func TestConsolidateKeepsBundleContribution(t *testing.T) {
	txns := []models.Transaction{
		count("2025-03-01", 50),
		// two King Sets counted, two pillowcases each
		tagged(count("2025-03-02", 4), kingSet),
	}
	if got := Consolidate(txns, 1, Unbounded()); got != 54 {
		t.Fatalf("got %d want 54", got)
	}

	// recounting loose pillowcases resets only the main stream
	txns = append(txns, count("2025-03-03", 50))
	if got := Consolidate(txns, 1, Unbounded()); got != 54 {
		t.Errorf("after main recount got %d want 54", got)
	}

	res := Breakdown(txns, 1, Unbounded())
	if len(res) != 2 || res[0].Units != 50 || res[1].Units != 4 {
		t.Errorf("unexpected breakdown %+v", res)
	}
}

func TestConsolidateCutoff(t *testing.T) {
	txns := []models.Transaction{
		count("2025-03-01", 50),
		tagged(count("2025-03-02", 4), kingSet),
		tagged(consume("2025-03-04", 2), kingSet),
		purchase("2025-03-04", 10),
	}
	if got := Consolidate(txns, 1, Before(day("2025-03-02"))); got != 50 {
		t.Errorf("opening 03-02 got %d want 50", got)
	}
	if got := Consolidate(txns, 1, Through(day("2025-03-04"))); got != 62 {
		t.Errorf("closing 03-04 got %d want 62", got)
	}
}

func TestGroupByItem(t *testing.T) {
	a := count("2025-03-01", 1)
	a.ItemID = 1
	b := count("2025-03-01", 2)
	b.ItemID = 2
	c := purchase("2025-03-02", 3)
	c.ItemID = 1
	got := GroupByItem([]models.Transaction{a, b, c})
	if len(got[1]) != 2 || len(got[2]) != 1 {
		t.Errorf("unexpected grouping %v", got)
	}
}
