package stock

import (
	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
)

const packagesNotCascaded = "package quantities on a bundle are not cascaded to its components, enter bundles in units"

// CascadeChildren derives the component rows of a bundle row. Each unit field
// present on the parent is multiplied by the component quantity; package
// fields stay on the parent only. Children live in the bundle's stream of the
// component and share the parent's source, day and cascade id. A parent that
// carries package quantities gets a warning back.
func CascadeChildren(parent models.Transaction, bundle models.Item) ([]models.Transaction, []string) {
	if !bundle.IsBundle || parent.IsCascaded() {
		return nil, nil
	}

	children := make([]models.Transaction, 0, len(bundle.Components))
	for _, c := range bundle.Components {
		children = append(children, models.Transaction{
			Date:           parent.Date,
			ItemID:         c.ComponentItemID,
			LocationID:     parent.LocationID,
			StreamTag:      bundle.ID,
			Source:         parent.Source,
			CountedUnits:   scale(parent.CountedUnits, c.QuantityPerUnit),
			PurchasedUnits: scale(parent.PurchasedUnits, c.QuantityPerUnit),
			SoakUnits:      scale(parent.SoakUnits, c.QuantityPerUnit),
			ConsumedUnits:  scale(parent.ConsumedUnits, c.QuantityPerUnit),
			CascadeID:      parent.CascadeID,
		})
	}

	var warnings []string
	if hasPackages(parent) && len(children) > 0 {
		warnings = append(warnings, packagesNotCascaded)
	}
	return children, warnings
}

func scale(p *int, qty int) *int {
	if p == nil {
		return nil
	}
	v := *p * qty
	return &v
}

func hasPackages(t models.Transaction) bool {
	return balance.Int(t.CountedPackages) != 0 ||
		balance.Int(t.PurchasedPackages) != 0 ||
		balance.Int(t.SoakPackages) != 0 ||
		balance.Int(t.ConsumedPackages) != 0
}

// sameQuantities compares the fields a cascade writes.
func sameQuantities(a, b models.Transaction) bool {
	return a.Source == b.Source &&
		eqInt(a.CountedUnits, b.CountedUnits) &&
		eqInt(a.PurchasedUnits, b.PurchasedUnits) &&
		eqInt(a.SoakUnits, b.SoakUnits) &&
		eqInt(a.ConsumedUnits, b.ConsumedUnits)
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
