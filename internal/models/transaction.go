package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TransactionSource string

const (
	SourceCount       TransactionSource = "Count"
	SourcePurchase    TransactionSource = "Purchase"
	SourceSoak        TransactionSource = "Soak"
	SourceConsumption TransactionSource = "Consumption"
	SourceUnspecified TransactionSource = "Unspecified"
)

// ParseSource accepts the wire names; an empty string is Unspecified.
func ParseSource(s string) (TransactionSource, error) {
	switch TransactionSource(s) {
	case SourceCount, SourcePurchase, SourceSoak, SourceConsumption, SourceUnspecified:
		return TransactionSource(s), nil
	case "":
		return SourceUnspecified, nil
	}
	return "", fmt.Errorf("unknown transaction source %q", s)
}

// IsAnchor reports whether rows of this source carry an absolute closing quantity.
func (s TransactionSource) IsAnchor() bool {
	switch s {
	case SourceCount:
		return true
	case SourcePurchase, SourceSoak, SourceConsumption, SourceUnspecified:
		return false
	}
	return false
}

// MainStream is the StreamTag of an item's own entries.
const MainStream uint = 0

// Transaction: one day's entry for (item, location, stream) in the append-only log.
// StreamTag is the bundle item the row was cascaded from, 0 for the item's own stream.
type Transaction struct {
	ID         uint              `gorm:"primaryKey"`
	Date       time.Time         `gorm:"uniqueIndex:idx_txn_stream_day,priority:1;not null"` // UTC midnight
	ItemID     uint              `gorm:"uniqueIndex:idx_txn_stream_day,priority:2;index;not null"`
	LocationID uint              `gorm:"uniqueIndex:idx_txn_stream_day,priority:3;index;not null"`
	StreamTag  uint              `gorm:"uniqueIndex:idx_txn_stream_day,priority:4;not null"`
	Source     TransactionSource `gorm:"size:20;not null"`

	CountedUnits      *int
	CountedPackages   *int
	PurchasedUnits    *int
	PurchasedPackages *int
	SoakUnits         *int
	SoakPackages      *int
	ConsumedUnits     *int
	ConsumedPackages  *int

	CascadeID string `gorm:"size:36;index"` // shared by a bundle row and its children

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AfterFind keeps dates comparable regardless of how the driver returns zones.
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	t.Date = t.Date.UTC()
	return nil
}

func (t Transaction) Key() StreamKey {
	return StreamKey{ItemID: t.ItemID, LocationID: t.LocationID, StreamTag: t.StreamTag}
}

func (t Transaction) IsCascaded() bool {
	return t.StreamTag != MainStream
}

// StreamKey identifies one independent replay timeline.
type StreamKey struct {
	ItemID     uint
	LocationID uint
	StreamTag  uint
}

// TransactionFilter narrows log queries. Zero IDs and nil pointers mean "any";
// From and To are inclusive days.
type TransactionFilter struct {
	ItemID     uint
	LocationID uint
	StreamTag  *uint
	From       *time.Time
	To         *time.Time
}
