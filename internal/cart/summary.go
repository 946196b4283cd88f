package cart

import "github.com/shopspring/decimal"

// Summary is what the header badge and cart totals show.
type Summary struct {
	TotalQuantity int             `json:"totalQuantity"`
	SelectedCount int             `json:"selectedCount"`
	SelectedTotal decimal.Decimal `json:"selectedTotal"`
	AllSelected   bool            `json:"allSelected"`
	AnySelected   bool            `json:"anySelected"`
}

// Summarize is pure; it never touches storage.
func Summarize(items []Item) Summary {
	sum := Summary{SelectedTotal: decimal.Zero, AllSelected: len(items) > 0}
	for _, it := range items {
		sum.TotalQuantity += it.Quantity
		if !it.Selected {
			sum.AllSelected = false
			continue
		}
		sum.AnySelected = true
		sum.SelectedCount += it.Quantity
		sum.SelectedTotal = sum.SelectedTotal.Add(it.LineTotal())
	}
	return sum
}
