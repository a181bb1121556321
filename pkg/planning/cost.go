package planning

import (
	"github.com/shopspring/decimal"

	"texhub/internal/domain"
)

// LineCost is the purchase cost of one line item: shortfall times unit
// price. Computed in decimal so money values survive the round trip through
// the stored float fields.
func LineCost(needToPurchase, unitPrice float64) float64 {
	cost := decimal.NewFromFloat(needToPurchase).Mul(decimal.NewFromFloat(unitPrice))
	f, _ := cost.Float64()
	return f
}

// AggregateCost sums the line items' total costs into the plan's estimated
// cost. The decimal sum makes the result independent of item order.
func AggregateCost(items []domain.ChemicalRequirement) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.TotalCost))
	}
	f, _ := total.Float64()
	return f
}
