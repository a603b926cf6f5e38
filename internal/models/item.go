package models

import (
	"time"

	"hotel-supply-backend/internal/unit"
)

// Item: tracked supply (pillowcase, towel, "King Set" bundle ...)
type Item struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:100;not null;unique"`
	PackageDescriptor string `gorm:"size:100"` // free text, e.g. "Case of 12"
	IsBundle          bool   `gorm:"not null;default:false"`

	// Default per-room requirements for the par-level report
	KingQty  int `gorm:"not null;default:0"`
	QueenQty int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Components []ItemComponent `gorm:"foreignKey:BundleItemID;constraint:OnDelete:CASCADE"`
}

// ItemComponent: one line of a bundle's bill of materials
type ItemComponent struct {
	ID              uint `gorm:"primaryKey"`
	BundleItemID    uint `gorm:"index;not null"`
	ComponentItemID uint `gorm:"index;not null"`
	QuantityPerUnit int  `gorm:"not null"`
}

// PackageSize is the conversion factor parsed from the descriptor.
func (i Item) PackageSize() int {
	return unit.PackageSize(i.PackageDescriptor)
}

// HasRoomRequirement reports whether the item takes part in the par-level report.
func (i Item) HasRoomRequirement() bool {
	return i.KingQty != 0 || i.QueenQty != 0
}
