package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/store"
)

var ErrInvalidCatalog = errors.New("invalid catalog entry")

// SaveItem validates the bill of materials and stores the item. Balances are
// expressed through the package size, so every cached balance is dropped.
func (s *Service) SaveItem(ctx context.Context, item *models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCatalog)
	}
	if item.KingQty < 0 || item.QueenQty < 0 {
		return fmt.Errorf("%w: room quantities must not be negative", ErrInvalidCatalog)
	}
	if !item.IsBundle && len(item.Components) > 0 {
		return fmt.Errorf("%w: only bundles have components", ErrInvalidCatalog)
	}

	if item.IsBundle && item.ID != 0 {
		if err := s.checkNotComponent(ctx, item.ID); err != nil {
			return err
		}
	}

	seen := make(map[uint]bool)
	for i, c := range item.Components {
		if c.QuantityPerUnit <= 0 {
			return fmt.Errorf("%w: component quantity must be positive", ErrInvalidCatalog)
		}
		if item.ID != 0 && c.ComponentItemID == item.ID {
			return fmt.Errorf("%w: a bundle cannot contain itself", ErrInvalidCatalog)
		}
		if seen[c.ComponentItemID] {
			return fmt.Errorf("%w: component %d listed twice", ErrInvalidCatalog, c.ComponentItemID)
		}
		seen[c.ComponentItemID] = true

		comp, err := s.store.GetItem(ctx, c.ComponentItemID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: component %d does not exist", ErrInvalidCatalog, c.ComponentItemID)
		}
		if err != nil {
			return err
		}
		if comp.IsBundle {
			return fmt.Errorf("%w: component %q is itself a bundle", ErrInvalidCatalog, comp.Name)
		}
		item.Components[i].BundleItemID = item.ID
	}

	if err := s.store.SaveItem(ctx, item); err != nil {
		return err
	}
	s.cache.Reset()
	return nil
}

// checkNotComponent keeps cascades one level deep: an item some bundle lists
// cannot become a bundle itself.
func (s *Service) checkNotComponent(ctx context.Context, itemID uint) error {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return err
	}
	for _, b := range items {
		if !b.IsBundle {
			continue
		}
		for _, c := range b.Components {
			if c.ComponentItemID == itemID {
				return fmt.Errorf("%w: item is a component of bundle %q", ErrInvalidCatalog, b.Name)
			}
		}
	}
	return nil
}

// SaveLocation stores a location and its item assignments.
func (s *Service) SaveLocation(ctx context.Context, loc *models.Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Category = strings.TrimSpace(loc.Category)
	if loc.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCatalog)
	}
	for _, a := range loc.Assignments {
		if _, err := s.item(ctx, a.ItemID); err != nil {
			if errors.Is(err, ErrUnknownItem) {
				return fmt.Errorf("%w: item %d does not exist", ErrInvalidCatalog, a.ItemID)
			}
			return err
		}
	}
	return s.store.SaveLocation(ctx, loc)
}
