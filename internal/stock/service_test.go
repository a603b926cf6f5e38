package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/store"
)

func n(v int) *int { return &v }

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	ctx     context.Context
	st      store.Store
	svc     *Service
	pillow  models.Item
	sheet   models.Item
	kingSet models.Item
	linen   models.Location
}

// newFixture seeds a pillowcase, a sheet sold in packs of 10 and a "King Set"
// bundle of 2 pillowcases and 1 sheet, all assigned to the linen room.
func newFixture(t *testing.T, st store.Store, opts Options) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), st: st, svc: NewService(st, opts)}

	f.pillow = models.Item{Name: "Pillowcase"}
	f.sheet = models.Item{Name: "King Sheet", PackageDescriptor: "Pack of 10"}
	for _, it := range []*models.Item{&f.pillow, &f.sheet} {
		if err := f.svc.SaveItem(f.ctx, it); err != nil {
			t.Fatal(err)
		}
	}
	f.kingSet = models.Item{Name: "King Set", IsBundle: true, Components: []models.ItemComponent{
		{ComponentItemID: f.pillow.ID, QuantityPerUnit: 2},
		{ComponentItemID: f.sheet.ID, QuantityPerUnit: 1},
	}}
	if err := f.svc.SaveItem(f.ctx, &f.kingSet); err != nil {
		t.Fatal(err)
	}
	f.linen = models.Location{Name: "Linen Room", Assignments: []models.LocationItem{
		{ItemID: f.pillow.ID}, {ItemID: f.sheet.ID}, {ItemID: f.kingSet.ID},
	}}
	if err := f.svc.SaveLocation(f.ctx, &f.linen); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) record(t *testing.T, in TransactionInput) *WriteResult {
	t.Helper()
	if in.LocationID == 0 {
		in.LocationID = f.linen.ID
	}
	res, err := f.svc.RecordTransaction(f.ctx, in)
	if err != nil {
		t.Fatalf("record %+v: %v", in, err)
	}
	return res
}

func (f *fixture) current(t *testing.T, itemID uint) int {
	t.Helper()
	txns, err := f.st.ListTransactions(f.ctx, models.TransactionFilter{ItemID: itemID, LocationID: f.linen.ID})
	if err != nil {
		t.Fatal(err)
	}
	item, _ := f.st.GetItem(f.ctx, itemID)
	return balance.Consolidate(txns, item.PackageSize(), balance.Unbounded())
}

func TestRecordIsIdempotentPerDay(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	in := TransactionInput{Date: day(3), ItemID: f.pillow.ID, PurchasedUnits: n(10)}
	first := f.record(t, in)
	second := f.record(t, in)

	if first.Transaction.ID != second.Transaction.ID {
		t.Errorf("second write created row %d, want update of %d", second.Transaction.ID, first.Transaction.ID)
	}
	if got := f.current(t, f.pillow.ID); got != 10 {
		t.Errorf("balance = %d want 10", got)
	}
	txns, _ := f.st.ListTransactions(f.ctx, models.TransactionFilter{ItemID: f.pillow.ID})
	if len(txns) != 1 {
		t.Errorf("rows = %d want 1", len(txns))
	}
}

func TestRecordMergesFieldsAndKeepsCount(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, CountedUnits: n(40)})
	res := f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, PurchasedUnits: n(5)})

	row := res.Transaction
	if row.Source != models.SourceCount {
		t.Errorf("source = %s, an inferred delta must not replace a count", row.Source)
	}
	if balance.Int(row.CountedUnits) != 40 || balance.Int(row.PurchasedUnits) != 5 {
		t.Errorf("fields not merged: counted %v purchased %v", row.CountedUnits, row.PurchasedUnits)
	}

	// an explicit delta source without counted fields keeps the day's count
	res = f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, Source: models.SourcePurchase, PurchasedUnits: n(6)})
	if res.Transaction.Source != models.SourceCount {
		t.Errorf("source = %s, explicit purchase demoted the count", res.Transaction.Source)
	}
	if balance.Int(res.Transaction.CountedUnits) != 40 || balance.Int(res.Transaction.PurchasedUnits) != 6 {
		t.Errorf("fields not merged: counted %v purchased %v", res.Transaction.CountedUnits, res.Transaction.PurchasedUnits)
	}

	// explicit source wins over a delta row
	f.record(t, TransactionInput{Date: day(4), ItemID: f.pillow.ID, PurchasedUnits: n(2)})
	res = f.record(t, TransactionInput{Date: day(4), ItemID: f.pillow.ID, Source: models.SourceSoak})
	if res.Transaction.Source != models.SourceSoak {
		t.Errorf("source = %s want soak", res.Transaction.Source)
	}
}

func TestExplicitDeltaKeepsSameDayCount(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.pillow.ID, CountedUnits: n(100)})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.pillow.ID, CountedUnits: n(50), Force: true})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.pillow.ID, Source: models.SourcePurchase, PurchasedUnits: n(5)})

	// the day 2 count of 50 is the anchor; deltas on the anchor day are not added
	if got := f.current(t, f.pillow.ID); got != 50 {
		t.Errorf("balance = %d want 50", got)
	}
}

func TestRecordRejectsBadInput(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"unknown item", TransactionInput{Date: day(1), ItemID: 999, LocationID: f.linen.ID, PurchasedUnits: n(1)}, ErrUnknownItem},
		{"unknown location", TransactionInput{Date: day(1), ItemID: f.pillow.ID, LocationID: 999, PurchasedUnits: n(1)}, ErrUnknownLocation},
		{"negative", TransactionInput{Date: day(1), ItemID: f.pillow.ID, LocationID: f.linen.ID, ConsumedUnits: n(-1)}, ErrInvalidQuantity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := f.svc.RecordTransaction(f.ctx, test.in); !errors.Is(err, test.want) {
				t.Errorf("err = %v want %v", err, test.want)
			}
		})
	}
	txns, _ := f.st.ListTransactions(f.ctx, models.TransactionFilter{})
	if len(txns) != 0 {
		t.Errorf("rejected writes left %d rows", len(txns))
	}
}

func TestBundleCascadeMultipliesUnits(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(3)})
	if res.Degraded() {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Children) != 2 {
		t.Fatalf("children = %d want 2", len(res.Children))
	}

	key := models.StreamKey{ItemID: f.pillow.ID, LocationID: f.linen.ID, StreamTag: f.kingSet.ID}
	child, err := f.st.FindTransaction(f.ctx, key, day(2))
	if err != nil {
		t.Fatal(err)
	}
	if balance.Int(child.PurchasedUnits) != 6 {
		t.Errorf("child purchased units = %d want 6", balance.Int(child.PurchasedUnits))
	}
	if child.Source != models.SourcePurchase {
		t.Errorf("child source = %s", child.Source)
	}
	if child.CascadeID == "" || child.CascadeID != res.Transaction.CascadeID {
		t.Errorf("cascade id %q does not match parent %q", child.CascadeID, res.Transaction.CascadeID)
	}
	if got := f.current(t, f.pillow.ID); got != 6 {
		t.Errorf("pillowcase balance = %d want 6", got)
	}
}

func TestBundleStreamSurvivesMainRecount(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.pillow.ID, CountedUnits: n(50)})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, CountedUnits: n(27)})
	f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, CountedUnits: n(50)})

	if got := f.current(t, f.pillow.ID); got != 104 {
		t.Errorf("pillowcase balance = %d want 104 (50 main + 54 from bundle)", got)
	}

	streams, total, err := f.svc.StreamBreakdown(f.ctx, f.pillow.ID, f.linen.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 2 || streams[0].Tag != models.MainStream || streams[1].Tag != f.kingSet.ID {
		t.Fatalf("streams = %+v", streams)
	}
	if streams[0].TotalUnits != 50 || streams[1].TotalUnits != 54 || total.TotalUnits != 104 {
		t.Errorf("breakdown %d + %d = %d", streams[0].TotalUnits, streams[1].TotalUnits, total.TotalUnits)
	}
}

func TestBundlePackagesAreNotCascaded(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(1), PurchasedPackages: n(2)})
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	for _, c := range res.Children {
		if c.PurchasedPackages != nil {
			t.Errorf("child %d carries packages", c.ItemID)
		}
	}
}

func TestCountWarning(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	// first count of a stream is taken as is
	f.record(t, TransactionInput{Date: day(1), ItemID: f.pillow.ID, CountedUnits: n(10)})

	_, err := f.svc.RecordTransaction(f.ctx, TransactionInput{Date: day(2), ItemID: f.pillow.ID, LocationID: f.linen.ID, CountedUnits: n(20)})
	var warn *CountWarning
	if !errors.As(err, &warn) {
		t.Fatalf("err = %v want CountWarning", err)
	}
	if warn.CountedUnits != 20 || warn.AvailableUnits != 10 {
		t.Errorf("warning = %+v", warn)
	}
	if row, _ := f.st.FindTransaction(f.ctx, models.StreamKey{ItemID: f.pillow.ID, LocationID: f.linen.ID}, day(2)); row != nil {
		t.Errorf("rejected count was stored")
	}

	// offset by a same-day purchase
	f.record(t, TransactionInput{Date: day(2), ItemID: f.pillow.ID, CountedUnits: n(20), PurchasedUnits: n(10)})

	// or confirmed
	f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, CountedUnits: n(90), Force: true})
	if got := f.current(t, f.pillow.ID); got != 90 {
		t.Errorf("balance = %d want 90", got)
	}
}

func TestEditTransaction(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(3)})
	edited, err := f.svc.EditTransaction(f.ctx, res.Transaction.ID, TransactionInput{PurchasedUnits: n(4)})
	if err != nil {
		t.Fatal(err)
	}
	if !edited.Transaction.Date.Equal(day(2)) {
		t.Errorf("date changed to %v", edited.Transaction.Date)
	}
	if got := f.current(t, f.pillow.ID); got != 8 {
		t.Errorf("pillowcase balance after edit = %d want 8", got)
	}

	if _, err := f.svc.EditTransaction(f.ctx, edited.Children[0].ID, TransactionInput{PurchasedUnits: n(1)}); !errors.Is(err, ErrCascadedTransaction) {
		t.Errorf("editing a child: err = %v", err)
	}
	if _, err := f.svc.EditTransaction(f.ctx, 999, TransactionInput{}); !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("editing a missing row: err = %v", err)
	}

	a := f.record(t, TransactionInput{Date: day(5), ItemID: f.sheet.ID, PurchasedUnits: n(1)})
	f.record(t, TransactionInput{Date: day(6), ItemID: f.sheet.ID, PurchasedUnits: n(1)})
	if _, err := f.svc.EditTransaction(f.ctx, a.Transaction.ID, TransactionInput{Date: day(6), PurchasedUnits: n(2)}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("moving onto an existing day: err = %v", err)
	}
}

func TestEditMovingBundleDayLeavesOrphans(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(3)})
	edited, err := f.svc.EditTransaction(f.ctx, res.Transaction.ID, TransactionInput{Date: day(4), PurchasedUnits: n(3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(edited.Warnings) != 1 {
		t.Errorf("warnings = %v", edited.Warnings)
	}

	report, err := f.svc.Reconcile(f.ctx, ReconcileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	orphans := 0
	for _, issue := range report.Issues {
		if issue.Kind == IssueOrphanedChild {
			orphans++
		}
	}
	if orphans != 2 {
		t.Errorf("orphans = %d want 2", orphans)
	}
}

func TestDeleteOrphansChildren(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(3)})
	del, err := f.svc.DeleteTransaction(f.ctx, res.Transaction.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(del.Orphaned) != 2 {
		t.Fatalf("orphaned = %d want 2", len(del.Orphaned))
	}
	// orphans still count until reconciled
	if got := f.current(t, f.pillow.ID); got != 6 {
		t.Errorf("pillowcase balance = %d want 6", got)
	}

	report, err := f.svc.Reconcile(f.ctx, ReconcileOptions{DeleteOrphans: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Deleted != 2 {
		t.Errorf("deleted = %d want 2", report.Deleted)
	}
	if got := f.current(t, f.pillow.ID); got != 0 {
		t.Errorf("pillowcase balance after cleanup = %d want 0", got)
	}

	if _, err := f.svc.DeleteTransaction(f.ctx, res.Transaction.ID); !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("second delete: err = %v", err)
	}
}

// flakyStore fails every cascaded write.
type flakyStore struct {
	store.Store
}

func (s flakyStore) UpsertTransaction(ctx context.Context, t *models.Transaction) error {
	if t.IsCascaded() {
		return errors.New("connection reset")
	}
	return s.Store.UpsertTransaction(ctx, t)
}

func TestBestEffortCascadeReportsFailures(t *testing.T) {
	mem := store.NewMemory()
	f := newFixture(t, flakyStore{mem}, Options{AtomicCascade: true})

	res := f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(3)})
	if !res.Degraded() || len(res.Failures) != 2 {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if res.Transaction.ID == 0 {
		t.Errorf("parent not written")
	}

	repairer := NewService(mem, Options{})
	report, err := repairer.Reconcile(f.ctx, ReconcileOptions{Repair: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 1 || report.Repaired != 2 {
		t.Errorf("report = %+v", report)
	}
	for _, issue := range report.Issues {
		if issue.Kind != IssueMissingChild || !issue.Fixed {
			t.Errorf("issue = %+v", issue)
		}
	}
	if got := f.current(t, f.pillow.ID); got != 6 {
		t.Errorf("pillowcase balance after repair = %d want 6", got)
	}

	report, _ = repairer.Reconcile(f.ctx, ReconcileOptions{})
	if len(report.Issues) != 0 {
		t.Errorf("issues after repair: %+v", report.Issues)
	}
}

func TestCachedReadsFollowWrites(t *testing.T) {
	cache := NewBalanceCache()
	f := newFixture(t, store.NewMemory(), Options{Cache: cache})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.pillow.ID, CountedUnits: n(10)})
	stock := func() int {
		rows, err := f.svc.StockByLocation(f.ctx, f.pillow.ID)
		if err != nil {
			t.Fatal(err)
		}
		return rows[0].TotalUnits
	}
	if got := stock(); got != 10 {
		t.Fatalf("stock = %d want 10", got)
	}
	if cache.Len() == 0 {
		t.Errorf("balance not cached")
	}

	f.record(t, TransactionInput{Date: day(2), ItemID: f.kingSet.ID, PurchasedUnits: n(1)})
	if got := stock(); got != 12 {
		t.Errorf("stock after cascade = %d want 12", got)
	}
}

func TestCurrentStockSplitsPackages(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.sheet.ID, CountedPackages: n(2), CountedUnits: n(3)})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.sheet.ID, ConsumedUnits: n(30)})

	rows, err := f.svc.CurrentStock(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	var sheet *ItemStock
	for i := range rows {
		if rows[i].ItemID == f.sheet.ID {
			sheet = &rows[i]
		}
	}
	if sheet == nil {
		t.Fatal("sheet missing from current stock")
	}
	want := Quantity{TotalUnits: -7, Packages: -1, Units: 3, Negative: true}
	if sheet.Quantity != want {
		t.Errorf("sheet = %+v want %+v", sheet.Quantity, want)
	}
}

func TestOpeningAndCombinedStock(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	f.record(t, TransactionInput{Date: day(1), ItemID: f.pillow.ID, CountedUnits: n(50)})
	f.record(t, TransactionInput{Date: day(2), ItemID: f.pillow.ID, PurchasedUnits: n(5)})
	f.record(t, TransactionInput{Date: day(3), ItemID: f.pillow.ID, ConsumedUnits: n(7)})

	opening, err := f.svc.OpeningBalances(f.ctx, f.linen.ID, day(2))
	if err != nil {
		t.Fatal(err)
	}
	if opening[f.pillow.ID].TotalUnits != 50 {
		t.Errorf("opening pillowcase = %d want 50", opening[f.pillow.ID].TotalUnits)
	}
	if _, ok := opening[f.sheet.ID]; !ok {
		t.Errorf("assigned item without rows missing from opening balances")
	}

	view, err := f.svc.CombinedStock(f.ctx, f.linen.ID, day(3))
	if err != nil {
		t.Fatal(err)
	}
	if view.OpeningBalances[f.pillow.ID].TotalUnits != 55 {
		t.Errorf("opening on day 3 = %d want 55", view.OpeningBalances[f.pillow.ID].TotalUnits)
	}
	if rows := view.Transactions[f.pillow.ID]; len(rows) != 1 || balance.Int(rows[0].ConsumedUnits) != 7 {
		t.Errorf("day rows = %+v", rows)
	}

	if _, err := f.svc.OpeningBalances(f.ctx, 999, day(2)); !errors.Is(err, ErrUnknownLocation) {
		t.Errorf("unknown location: err = %v", err)
	}
}

func TestSaveItemValidation(t *testing.T) {
	f := newFixture(t, store.NewMemory(), Options{})

	tests := []struct {
		name string
		item models.Item
	}{
		{"blank name", models.Item{Name: "  "}},
		{"components on plain item", models.Item{Name: "Towel", Components: []models.ItemComponent{{ComponentItemID: f.pillow.ID, QuantityPerUnit: 1}}}},
		{"zero quantity", models.Item{Name: "Set", IsBundle: true, Components: []models.ItemComponent{{ComponentItemID: f.pillow.ID}}}},
		{"missing component", models.Item{Name: "Set", IsBundle: true, Components: []models.ItemComponent{{ComponentItemID: 999, QuantityPerUnit: 1}}}},
		{"nested bundle", models.Item{Name: "Set", IsBundle: true, Components: []models.ItemComponent{{ComponentItemID: f.kingSet.ID, QuantityPerUnit: 1}}}},
		{"component turned bundle", models.Item{ID: f.pillow.ID, Name: "Pillowcase", IsBundle: true}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			item := test.item
			if err := f.svc.SaveItem(f.ctx, &item); !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("err = %v want ErrInvalidCatalog", err)
			}
		})
	}
}
