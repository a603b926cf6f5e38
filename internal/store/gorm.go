package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-supply-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Store backed by the service database.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

var (
	_ Store  = (*Gorm)(nil)
	_ Atomic = (*Gorm)(nil)
)

func (g *Gorm) Atomically(ctx context.Context, fn func(Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (g *Gorm) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := g.db.WithContext(ctx).Preload("Components").First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (g *Gorm) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := g.db.WithContext(ctx).Preload("Components").Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SaveItem creates or updates the item and replaces its component list.
func (g *Gorm) SaveItem(ctx context.Context, item *models.Item) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("save item: %w", err)
		}
		if err := tx.Where("bundle_item_id = ?", item.ID).Delete(&models.ItemComponent{}).Error; err != nil {
			return fmt.Errorf("clear components: %w", err)
		}
		for i := range item.Components {
			item.Components[i].ID = 0
			item.Components[i].BundleItemID = item.ID
		}
		if len(item.Components) > 0 {
			if err := tx.Create(&item.Components).Error; err != nil {
				return fmt.Errorf("save components: %w", err)
			}
		}
		return nil
	})
}

func (g *Gorm) GetLocation(ctx context.Context, id uint) (*models.Location, error) {
	var loc models.Location
	if err := g.db.WithContext(ctx).Preload("Assignments").First(&loc, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

func (g *Gorm) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	if err := g.db.WithContext(ctx).Preload("Assignments").Order("name asc").Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

// SaveLocation creates or updates the location and replaces its item assignments.
func (g *Gorm) SaveLocation(ctx context.Context, loc *models.Location) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(loc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("save location: %w", err)
		}
		if err := tx.Where("location_id = ?", loc.ID).Delete(&models.LocationItem{}).Error; err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}
		for i := range loc.Assignments {
			loc.Assignments[i].LocationID = loc.ID
		}
		if len(loc.Assignments) > 0 {
			if err := tx.Create(&loc.Assignments).Error; err != nil {
				return fmt.Errorf("save assignments: %w", err)
			}
		}
		return nil
	})
}

// GetSettings returns the settings row, or zero settings before the first save.
func (g *Gorm) GetSettings(ctx context.Context) (models.Setting, error) {
	var s models.Setting
	err := g.db.WithContext(ctx).Order("id asc").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Setting{}, nil
	}
	return s, err
}

func (g *Gorm) SaveSettings(ctx context.Context, s *models.Setting) error {
	if s.ID == 0 {
		current, err := g.GetSettings(ctx)
		if err != nil {
			return err
		}
		s.ID = current.ID
	}
	return g.db.WithContext(ctx).Save(s).Error
}

func (g *Gorm) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := g.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (g *Gorm) FindTransaction(ctx context.Context, key models.StreamKey, date time.Time) (*models.Transaction, error) {
	var t models.Transaction
	err := g.db.WithContext(ctx).
		Where("date = ? AND item_id = ? AND location_id = ? AND stream_tag = ?",
			date, key.ItemID, key.LocationID, key.StreamTag).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (g *Gorm) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	q := g.db.WithContext(ctx).Model(&models.Transaction{})
	if f.ItemID != 0 {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.StreamTag != nil {
		q = q.Where("stream_tag = ?", *f.StreamTag)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}

	var txns []models.Transaction
	if err := q.Order("date asc, created_at asc, id asc").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

var upsertColumns = []string{
	"source",
	"counted_units", "counted_packages",
	"purchased_units", "purchased_packages",
	"soak_units", "soak_packages",
	"consumed_units", "consumed_packages",
	"cascade_id", "updated_at",
}

// UpsertTransaction relies on the unique stream/day index, so concurrent
// writers to one key serialize in the database. The row is re-read afterwards
// because not every driver returns the id of an updated conflict row.
func (g *Gorm) UpsertTransaction(ctx context.Context, t *models.Transaction) error {
	t.ID = 0
	t.CreatedAt = time.Time{}
	db := g.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "date"}, {Name: "item_id"}, {Name: "location_id"}, {Name: "stream_tag"},
		},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(t).Error
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	stored, err := g.FindTransaction(ctx, t.Key(), t.Date)
	if err != nil {
		return fmt.Errorf("reload transaction: %w", err)
	}
	*t = *stored
	return nil
}

func (g *Gorm) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	res := g.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", t.ID).
		Select(append([]string{"date"}, upsertColumns...)).
		Updates(t)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	if res.Error != nil {
		return res.Error
	}
	// updated_at is always written, so zero rows means the row is gone
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) DeleteTransaction(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
