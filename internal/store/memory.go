package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotel-supply-backend/internal/models"
)

// Memory is an in-process Store. It has no multi-key transactions, so writes
// through it take the best-effort cascade path. Now may be replaced to control
// CreatedAt ordering.
type Memory struct {
	Now func() time.Time

	mu        sync.RWMutex
	items     map[uint]models.Item
	locations map[uint]models.Location
	settings  models.Setting
	txns      map[uint]models.Transaction
	nextID    uint
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		Now:       time.Now,
		items:     make(map[uint]models.Item),
		locations: make(map[uint]models.Location),
		txns:      make(map[uint]models.Transaction),
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func cloneItem(it models.Item) models.Item {
	it.Components = append([]models.ItemComponent(nil), it.Components...)
	return it
}

func cloneLocation(l models.Location) models.Location {
	l.Assignments = append([]models.LocationItem(nil), l.Assignments...)
	return l
}

func (m *Memory) GetItem(_ context.Context, id uint) (*models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	it = cloneItem(it)
	return &it, nil
}

func (m *Memory) ListItems(_ context.Context) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveItem(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.items {
		if other.Name == item.Name && id != item.ID {
			return ErrConflict
		}
	}
	now := m.Now()
	if item.ID == 0 {
		item.ID = m.id()
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	for i := range item.Components {
		item.Components[i].ID = m.id()
		item.Components[i].BundleItemID = item.ID
	}
	m.items[item.ID] = cloneItem(*item)
	return nil
}

func (m *Memory) GetLocation(_ context.Context, id uint) (*models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.locations[id]
	if !ok {
		return nil, ErrNotFound
	}
	l = cloneLocation(l)
	return &l, nil
}

func (m *Memory) ListLocations(_ context.Context) ([]models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Location, 0, len(m.locations))
	for _, l := range m.locations {
		out = append(out, cloneLocation(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveLocation(_ context.Context, loc *models.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.locations {
		if other.Name == loc.Name && id != loc.ID {
			return ErrConflict
		}
	}
	now := m.Now()
	if loc.ID == 0 {
		loc.ID = m.id()
		loc.CreatedAt = now
	}
	loc.UpdatedAt = now
	for i := range loc.Assignments {
		loc.Assignments[i].LocationID = loc.ID
	}
	m.locations[loc.ID] = cloneLocation(*loc)
	return nil
}

func (m *Memory) GetSettings(_ context.Context) (models.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s *models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = 1
	s.UpdatedAt = m.Now()
	m.settings = *s
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id uint) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.txns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) FindTransaction(_ context.Context, key models.StreamKey, date time.Time) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.findLocked(key, date); ok {
		return &t, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) findLocked(key models.StreamKey, date time.Time) (models.Transaction, bool) {
	for _, t := range m.txns {
		if t.Key() == key && t.Date.Equal(date) {
			return t, true
		}
	}
	return models.Transaction{}, false
}

func (m *Memory) ListTransactions(_ context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Transaction, 0)
	for _, t := range m.txns {
		if f.ItemID != 0 && t.ItemID != f.ItemID {
			continue
		}
		if f.LocationID != 0 && t.LocationID != f.LocationID {
			continue
		}
		if f.StreamTag != nil && t.StreamTag != *f.StreamTag {
			continue
		}
		if f.From != nil && t.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && t.Date.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *Memory) UpsertTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	if existing, ok := m.findLocked(t.Key(), t.Date); ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		t.ID = m.id()
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.txns[t.ID] = *t
	return nil
}

func (m *Memory) UpdateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.txns[t.ID]
	if !ok {
		return ErrNotFound
	}
	if other, ok := m.findLocked(t.Key(), t.Date); ok && other.ID != t.ID {
		return ErrConflict
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = m.Now()
	m.txns[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[id]; !ok {
		return ErrNotFound
	}
	delete(m.txns, id)
	return nil
}
