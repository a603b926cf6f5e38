package models

import "time"

// Location: storeroom, floor closet, laundry ...
type Location struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Category  string `gorm:"size:100;index"` // optional report grouping key
	CreatedAt time.Time
	UpdatedAt time.Time

	Assignments []LocationItem `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
}

// LocationItem: item tracked at a location
type LocationItem struct {
	LocationID uint `gorm:"primaryKey"`
	ItemID     uint `gorm:"primaryKey;index"`
}

func (l Location) AssignedItemIDs() []uint {
	ids := make([]uint, 0, len(l.Assignments))
	for _, a := range l.Assignments {
		ids = append(ids, a.ItemID)
	}
	return ids
}

func (l Location) HasItem(itemID uint) bool {
	for _, a := range l.Assignments {
		if a.ItemID == itemID {
			return true
		}
	}
	return false
}

// GroupKey is the par-level report group: category, or the name when no category is set.
func (l Location) GroupKey() string {
	if l.Category != "" {
		return l.Category
	}
	return l.Name
}
