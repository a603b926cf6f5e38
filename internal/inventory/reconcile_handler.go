package inventory

import (
	"fmt"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type ReconcileIssueResponse struct {
	Kind     stock.IssueKind      `json:"kind"`
	Parent   *TransactionResponse `json:"parent,omitempty"`
	Child    *TransactionResponse `json:"child,omitempty"`
	Expected *TransactionResponse `json:"expected,omitempty"`
	Fixed    bool                 `json:"fixed"`
}

func optionalTransaction(t *models.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}
	r := toTransactionResponse(*t)
	return &r
}

// POST /api/admin/reconcile?repair=true&delete_orphans=true
func ReconcileHandler(svc *stock.Service, logs audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := stock.ReconcileOptions{
			Repair:        c.QueryBool("repair", false),
			DeleteOrphans: c.QueryBool("delete_orphans", false),
		}
		report, err := svc.Reconcile(c.UserContext(), opts)
		if err != nil {
			return stockError(c, err)
		}

		issues := make([]ReconcileIssueResponse, 0, len(report.Issues))
		for _, is := range report.Issues {
			issues = append(issues, ReconcileIssueResponse{
				Kind:     is.Kind,
				Parent:   optionalTransaction(is.Parent),
				Child:    optionalTransaction(is.Child),
				Expected: optionalTransaction(is.Expected),
				Fixed:    is.Fixed,
			})
		}

		if report.Repaired > 0 || report.Deleted > 0 {
			a, _ := currentActor(c)
			audit.Record(c.UserContext(), logs, audit.LogOptions{
				UserID:      a.UserID,
				UserName:    a.Name,
				EntityType:  "transaction",
				Action:      models.AuditActionRepair,
				Description: fmt.Sprintf("reconcile repaired %d cascaded rows and deleted %d orphans", report.Repaired, report.Deleted),
			})
		}

		return c.JSON(fiber.Map{
			"checked":  report.Checked,
			"repaired": report.Repaired,
			"deleted":  report.Deleted,
			"issues":   issues,
		})
	}
}
