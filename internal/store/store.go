// Package store is the datastore behind the stock engine: items, locations,
// settings and the transaction log.
package store

import (
	"context"
	"errors"
	"time"

	"hotel-supply-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing row")
)

// Store is safe for concurrent use. UpsertTransaction must be atomic per
// (date, item, location, stream) key: it inserts the row or replaces the
// quantity fields of the existing one, and fills ID and CreatedAt on t.
type Store interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	SaveItem(ctx context.Context, item *models.Item) error

	GetLocation(ctx context.Context, id uint) (*models.Location, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	SaveLocation(ctx context.Context, loc *models.Location) error

	GetSettings(ctx context.Context) (models.Setting, error)
	SaveSettings(ctx context.Context, s *models.Setting) error

	GetTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	FindTransaction(ctx context.Context, key models.StreamKey, date time.Time) (*models.Transaction, error)
	ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	UpsertTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id uint) error
}

// Atomic is implemented by stores that can commit several writes as one unit.
// fn runs against a Store bound to the unit; returning an error rolls back.
type Atomic interface {
	Atomically(ctx context.Context, fn func(Store) error) error
}
