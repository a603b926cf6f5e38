package stock

import (
	"context"
	"log"

	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
)

type IssueKind string

const (
	IssueMissingChild    IssueKind = "missing_child"
	IssueMismatchedChild IssueKind = "mismatched_child"
	IssueOrphanedChild   IssueKind = "orphaned_child"
)

// ReconcileIssue is one cascade row that does not match its bundle row.
type ReconcileIssue struct {
	Kind     IssueKind
	Parent   *models.Transaction
	Child    *models.Transaction // row in the log, nil when missing
	Expected *models.Transaction // row the cascade would write, nil for orphans
	Fixed    bool
}

type ReconcileOptions struct {
	// Repair writes missing and mismatched children.
	Repair bool
	// DeleteOrphans removes children whose bundle row or component is gone.
	DeleteOrphans bool
}

type ReconcileReport struct {
	Checked  int
	Issues   []ReconcileIssue
	Repaired int
	Deleted  int
}

type rowKey struct {
	models.StreamKey
	day string
}

func keyOf(t models.Transaction) rowKey {
	return rowKey{StreamKey: t.Key(), day: balance.FormatDay(t.Date)}
}

// Reconcile compares every bundle row with its cascaded rows. It finds
// partial cascades left by best-effort writes and children orphaned by
// deletes, edits or bill-of-materials changes.
func (s *Service) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	items, err := s.itemsByID(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, models.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	index := make(map[rowKey]models.Transaction, len(txns))
	for _, t := range txns {
		index[keyOf(t)] = t
	}

	report := &ReconcileReport{}
	for _, t := range txns {
		if t.IsCascaded() {
			continue
		}
		item, ok := items[t.ItemID]
		if !ok || !item.IsBundle {
			continue
		}
		report.Checked++
		expected, _ := CascadeChildren(t, item)
		for _, want := range expected {
			parent, want := t, want
			got, exists := index[keyOf(want)]
			switch {
			case !exists:
				report.Issues = append(report.Issues, ReconcileIssue{Kind: IssueMissingChild, Parent: &parent, Expected: &want})
			case !sameQuantities(got, want) || got.CascadeID != want.CascadeID:
				got := got
				report.Issues = append(report.Issues, ReconcileIssue{Kind: IssueMismatchedChild, Parent: &parent, Child: &got, Expected: &want})
			}
		}
	}

	for _, t := range txns {
		if !t.IsCascaded() {
			continue
		}
		if s.hasParent(t, items, index) {
			continue
		}
		child := t
		report.Issues = append(report.Issues, ReconcileIssue{Kind: IssueOrphanedChild, Child: &child})
	}

	for i := range report.Issues {
		issue := &report.Issues[i]
		switch {
		case issue.Kind == IssueOrphanedChild && opts.DeleteOrphans:
			if err := s.store.DeleteTransaction(ctx, issue.Child.ID); err != nil {
				return report, err
			}
			s.cache.Invalidate(issue.Child.ItemID, issue.Child.LocationID)
			issue.Fixed = true
			report.Deleted++
		case issue.Kind != IssueOrphanedChild && opts.Repair:
			row := *issue.Expected
			if err := s.store.UpsertTransaction(ctx, &row); err != nil {
				return report, err
			}
			s.cache.Invalidate(row.ItemID, row.LocationID)
			issue.Fixed = true
			report.Repaired++
		}
	}

	if len(report.Issues) > 0 {
		log.Printf("reconcile: %d bundle rows checked, %d issues, %d repaired, %d orphans deleted",
			report.Checked, len(report.Issues), report.Repaired, report.Deleted)
	}
	return report, nil
}

// hasParent reports whether a cascaded row still belongs to a bundle row of
// a bundle that lists its item as a component.
func (s *Service) hasParent(child models.Transaction, items map[uint]models.Item, index map[rowKey]models.Transaction) bool {
	bundle, ok := items[child.StreamTag]
	if !ok || !bundle.IsBundle {
		return false
	}
	listed := false
	for _, c := range bundle.Components {
		if c.ComponentItemID == child.ItemID {
			listed = true
			break
		}
	}
	if !listed {
		return false
	}
	parentKey := rowKey{
		StreamKey: models.StreamKey{ItemID: bundle.ID, LocationID: child.LocationID, StreamTag: models.MainStream},
		day:       balance.FormatDay(child.Date),
	}
	_, ok = index[parentKey]
	return ok
}
