package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"hotel-supply-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	LocationID  *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Writer records who changed what. Audit failures never fail the change.
type Writer interface {
	Write(ctx context.Context, opts LogOptions) error
}

type GormWriter struct {
	db *gorm.DB
}

func NewGormWriter(db *gorm.DB) *GormWriter {
	return &GormWriter{db: db}
}

func (w *GormWriter) Write(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		LocationID:  opts.LocationID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
	if err := w.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log not saved: %w", err)
	}
	return nil
}

// jsonb wants "null" rather than an empty value
func toJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// Record writes opts and logs a failure instead of returning it.
func Record(ctx context.Context, w Writer, opts LogOptions) {
	if w == nil {
		return
	}
	if err := w.Write(ctx, opts); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

type discard struct{}

func (discard) Write(context.Context, LogOptions) error { return nil }

// Discard drops every entry.
var Discard Writer = discard{}
