package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-supply-backend/internal/auth"
	"hotel-supply-backend/internal/database"
	"hotel-supply-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestWriteAndList(t *testing.T) {
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w := NewGormWriter(db)
	linen, laundry := uint(1), uint(2)
	entries := []LogOptions{
		{LocationID: &linen, UserID: 1, UserName: "Ada", EntityType: "transaction", EntityID: 10, Action: models.AuditActionCreate, After: map[string]int{"counted_units": 50}},
		{LocationID: &laundry, UserID: 2, UserName: "Sam", EntityType: "transaction", EntityID: 11, Action: models.AuditActionDelete},
		{UserID: 1, UserName: "Ada", EntityType: "item", EntityID: 3, Action: models.AuditActionUpdate},
	}
	for _, e := range entries {
		if err := w.Write(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list := func(role models.UserRole, loc *uint, query string) []AuditLogResponse {
		t.Helper()
		app := fiber.New()
		app.Get("/audit-logs", func(c *fiber.Ctx) error {
			auth.SetIdentity(c, 1, "Ada", role, loc)
			return c.Next()
		}, ListAuditLogsHandler(db))
		resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs"+query, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var out []AuditLogResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	if got := list(models.RoleAdmin, nil, ""); len(got) != 3 {
		t.Errorf("admin sees %d entries want 3", len(got))
	}
	if got := list(models.RoleAdmin, nil, "?entity_type=transaction&location_id=1"); len(got) != 1 || got[0].EntityID != 10 {
		t.Errorf("filtered = %+v", got)
	} else if after, ok := got[0].After.(map[string]any); !ok || after["counted_units"] != float64(50) {
		t.Errorf("after = %#v", got[0].After)
	}
	if got := list(models.RoleStaff, &laundry, "?location_id=1"); len(got) != 1 || got[0].UserName != "Sam" {
		t.Errorf("staff sees %+v", got)
	}
}

func TestRecordNilAndDiscard(t *testing.T) {
	Record(context.Background(), nil, LogOptions{})
	Record(context.Background(), Discard, LogOptions{})
}
