// Package stock is the write and read side of the supply ledger: it validates
// and cascades writes into the transaction log and answers balance questions
// by replaying it.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/store"
	"hotel-supply-backend/internal/unit"

	"github.com/google/uuid"
)

type Options struct {
	// Cache is optional; nil replays the log on every read.
	Cache *BalanceCache
	// AtomicCascade commits a bundle row and its children in one unit when the
	// store supports it. Otherwise children are written one by one and
	// failures are reported on the result.
	AtomicCascade bool
}

type Service struct {
	store  store.Store
	cache  *BalanceCache
	atomic bool
}

func NewService(st store.Store, opts Options) *Service {
	return &Service{store: st, cache: opts.Cache, atomic: opts.AtomicCascade}
}

func (s *Service) Store() store.Store {
	return s.store
}

// TransactionInput is one write request. Nil quantities are absent. An empty
// Source is inferred from the quantities present.
type TransactionInput struct {
	Date       time.Time
	ItemID     uint
	LocationID uint
	Source     models.TransactionSource

	CountedUnits      *int
	CountedPackages   *int
	PurchasedUnits    *int
	PurchasedPackages *int
	SoakUnits         *int
	SoakPackages      *int
	ConsumedUnits     *int
	ConsumedPackages  *int

	// Force accepts a count that triggered a CountWarning.
	Force bool
}

func (in TransactionInput) fields() []*int {
	return []*int{
		in.CountedUnits, in.CountedPackages,
		in.PurchasedUnits, in.PurchasedPackages,
		in.SoakUnits, in.SoakPackages,
		in.ConsumedUnits, in.ConsumedPackages,
	}
}

func (in TransactionInput) validate() error {
	for _, f := range in.fields() {
		if f != nil && *f < 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func (in TransactionInput) inferSource() models.TransactionSource {
	switch {
	case in.CountedUnits != nil || in.CountedPackages != nil:
		return models.SourceCount
	case in.PurchasedUnits != nil || in.PurchasedPackages != nil:
		return models.SourcePurchase
	case in.SoakUnits != nil || in.SoakPackages != nil:
		return models.SourceSoak
	case in.ConsumedUnits != nil || in.ConsumedPackages != nil:
		return models.SourceConsumption
	}
	return models.SourceUnspecified
}

// CascadeFailure is a child row that could not be written.
type CascadeFailure struct {
	ComponentItemID uint
	Err             error
}

type WriteResult struct {
	Transaction models.Transaction
	Children    []models.Transaction
	Failures    []CascadeFailure
	Warnings    []string
}

// Degraded reports a parent write whose cascade is incomplete.
func (r *WriteResult) Degraded() bool {
	return len(r.Failures) > 0
}

type DeleteResult struct {
	Transaction models.Transaction
	// Orphaned are cascaded rows of a deleted bundle row. They are kept and
	// still count towards balances until reconciled.
	Orphaned []models.Transaction
}

// RecordTransaction upserts the day's main-stream row for the item and
// location, merging the provided quantities into an existing row, then
// cascades bundle rows to their components.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (*WriteResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.location(ctx, in.LocationID); err != nil {
		return nil, err
	}

	date := balance.Day(in.Date)
	key := models.StreamKey{ItemID: in.ItemID, LocationID: in.LocationID, StreamTag: models.MainStream}
	existing, err := s.store.FindTransaction(ctx, key, date)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load existing row: %w", err)
	}

	row := mergeInput(existing, in, key, date)
	if item.IsBundle && row.CascadeID == "" {
		row.CascadeID = uuid.NewString()
	}
	if !in.Force {
		if err := s.checkCount(ctx, row, item); err != nil {
			return nil, err
		}
	}

	return s.commit(ctx, row, item, func(st store.Store, t *models.Transaction) error {
		return st.UpsertTransaction(ctx, t)
	})
}

// EditTransaction replaces the quantities, source and day of a main-stream
// row and recomputes its cascade from the edited state.
func (s *Service) EditTransaction(ctx context.Context, id uint, in TransactionInput) (*WriteResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownTransaction
	}
	if err != nil {
		return nil, err
	}
	if current.IsCascaded() {
		return nil, ErrCascadedTransaction
	}
	item, err := s.item(ctx, current.ItemID)
	if err != nil {
		return nil, err
	}

	row := *current
	if !in.Date.IsZero() {
		row.Date = balance.Day(in.Date)
	}
	row.Source = in.Source
	if row.Source == "" {
		row.Source = in.inferSource()
	}
	row.CountedUnits, row.CountedPackages = in.CountedUnits, in.CountedPackages
	row.PurchasedUnits, row.PurchasedPackages = in.PurchasedUnits, in.PurchasedPackages
	row.SoakUnits, row.SoakPackages = in.SoakUnits, in.SoakPackages
	row.ConsumedUnits, row.ConsumedPackages = in.ConsumedUnits, in.ConsumedPackages
	if item.IsBundle && row.CascadeID == "" {
		row.CascadeID = uuid.NewString()
	}

	if !in.Force {
		if err := s.checkCount(ctx, row, item); err != nil {
			return nil, err
		}
	}

	res, err := s.commit(ctx, row, item, func(st store.Store, t *models.Transaction) error {
		err := st.UpdateTransaction(ctx, t)
		if errors.Is(err, store.ErrConflict) {
			return ErrDuplicateKey
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if !row.Date.Equal(current.Date) {
		left, err := s.children(ctx, *current)
		if err != nil {
			return nil, err
		}
		if len(left) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%d cascaded rows remain on %s for the previous day of this bundle row, run reconcile",
				len(left), balance.FormatDay(current.Date)))
		}
	}
	return res, nil
}

// DeleteTransaction hard-deletes a row. Cascaded children of a bundle row are
// not removed; they are returned so the caller can surface them.
func (s *Service) DeleteTransaction(ctx context.Context, id uint) (*DeleteResult, error) {
	current, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownTransaction
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	s.cache.Invalidate(current.ItemID, current.LocationID)

	res := &DeleteResult{Transaction: *current}
	if !current.IsCascaded() {
		res.Orphaned, err = s.children(ctx, *current)
		if err != nil {
			return nil, err
		}
		if len(res.Orphaned) > 0 {
			log.Printf("[WARN] transaction %d deleted, %d cascaded rows left in place", id, len(res.Orphaned))
		}
	}
	return res, nil
}

// commit writes the parent with write and then its cascade.
func (s *Service) commit(ctx context.Context, row models.Transaction, item *models.Item,
	write func(store.Store, *models.Transaction) error) (*WriteResult, error) {

	children, warnings := CascadeChildren(row, *item)
	res := &WriteResult{Warnings: warnings}

	if a, ok := s.store.(store.Atomic); ok && s.atomic {
		err := a.Atomically(ctx, func(tx store.Store) error {
			if err := write(tx, &row); err != nil {
				return err
			}
			res.Children = res.Children[:0]
			for _, c := range children {
				if err := tx.UpsertTransaction(ctx, &c); err != nil {
					return fmt.Errorf("cascade to item %d: %w", c.ItemID, err)
				}
				res.Children = append(res.Children, c)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		if err := write(s.store, &row); err != nil {
			return nil, err
		}
		for _, c := range children {
			if err := s.store.UpsertTransaction(ctx, &c); err != nil {
				log.Printf("[WARN] cascade of transaction %d to item %d failed: %v", row.ID, c.ItemID, err)
				res.Failures = append(res.Failures, CascadeFailure{ComponentItemID: c.ItemID, Err: err})
				continue
			}
			res.Children = append(res.Children, c)
		}
	}

	res.Transaction = row
	s.cache.Invalidate(row.ItemID, row.LocationID)
	for _, c := range children {
		s.cache.Invalidate(c.ItemID, c.LocationID)
	}
	return res, nil
}

// checkCount rejects a count above the stream's opening balance plus the
// same-day purchases and soak returns on the row. A stream without history
// takes its first count as is.
func (s *Service) checkCount(ctx context.Context, row models.Transaction, item *models.Item) error {
	if !row.Source.IsAnchor() {
		return nil
	}
	prev := row.Date.AddDate(0, 0, -1)
	tag := row.StreamTag
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{
		ItemID: row.ItemID, LocationID: row.LocationID, StreamTag: &tag, To: &prev,
	})
	if err != nil {
		return fmt.Errorf("load stream history: %w", err)
	}
	history := txns[:0]
	for _, t := range txns {
		if t.ID != row.ID {
			history = append(history, t)
		}
	}
	if len(history) == 0 {
		return nil
	}

	size := item.PackageSize()
	opening := balance.Replay(history, size, balance.Before(row.Date)).Units
	available := opening +
		unit.ToTotalUnits(balance.Int(row.PurchasedPackages), balance.Int(row.PurchasedUnits), size) +
		unit.ToTotalUnits(balance.Int(row.SoakPackages), balance.Int(row.SoakUnits), size)
	counted := balance.CountedTotal(row, size)
	if counted <= available {
		return nil
	}
	return &CountWarning{
		CountedUnits:   counted,
		AvailableUnits: available,
		Messages: []string{fmt.Sprintf(
			"count of %d units exceeds the opening balance plus same-day receipts (%d units); add a purchase or confirm the count",
			counted, available)},
	}
}

// children lists the rows cascaded from a main-stream row.
func (s *Service) children(ctx context.Context, parent models.Transaction) ([]models.Transaction, error) {
	tag := parent.ItemID
	date := parent.Date
	return s.store.ListTransactions(ctx, models.TransactionFilter{
		LocationID: parent.LocationID, StreamTag: &tag, From: &date, To: &date,
	})
}

func (s *Service) item(ctx context.Context, id uint) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownItem
	}
	return item, err
}

func (s *Service) location(ctx context.Context, id uint) (*models.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownLocation
	}
	return loc, err
}

// mergeInput applies a write onto the day's existing row. An explicit source
// wins; an inferred delta source never turns an existing count into a delta.
func mergeInput(existing *models.Transaction, in TransactionInput, key models.StreamKey, date time.Time) models.Transaction {
	var row models.Transaction
	if existing != nil {
		row = *existing
	} else {
		row = models.Transaction{
			Date:       date,
			ItemID:     key.ItemID,
			LocationID: key.LocationID,
			StreamTag:  key.StreamTag,
		}
	}

	set := func(dst **int, src *int) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&row.CountedUnits, in.CountedUnits)
	set(&row.CountedPackages, in.CountedPackages)
	set(&row.PurchasedUnits, in.PurchasedUnits)
	set(&row.PurchasedPackages, in.PurchasedPackages)
	set(&row.SoakUnits, in.SoakUnits)
	set(&row.SoakPackages, in.SoakPackages)
	set(&row.ConsumedUnits, in.ConsumedUnits)
	set(&row.ConsumedPackages, in.ConsumedPackages)

	inferred := in.inferSource()
	switch {
	case existing != nil && existing.Source == models.SourceCount && in.CountedUnits == nil && in.CountedPackages == nil:
		// a same-day delta never demotes the day's count, explicit source or not
	case in.Source != "":
		row.Source = in.Source
	case existing == nil, inferred == models.SourceCount:
		row.Source = inferred
	case existing.Source == models.SourceUnspecified:
		row.Source = inferred
	}
	return row
}
