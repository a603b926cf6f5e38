package models

import "time"

// Setting: hotel-wide values, a single row
type Setting struct {
	ID             uint `gorm:"primaryKey"`
	KingRoomCount  int  `gorm:"not null;default:0"`
	QueenRoomCount int  `gorm:"not null;default:0"`
	UpdatedAt      time.Time
}
