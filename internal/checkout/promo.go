package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

type PromoStatus string

const (
	PromoEmpty        PromoStatus = "empty"
	PromoApplied      PromoStatus = "applied"
	PromoBelowMinimum PromoStatus = "below_minimum"
	PromoNotFound     PromoStatus = "not_found"
	PromoFailed       PromoStatus = "failed"
)

// PromoApplication is the code currently applied to the selection. It lives
// only in memory and is rebuilt on every apply attempt.
type PromoApplication struct {
	Name     string          `json:"name"`
	Discount decimal.Decimal `json:"discount"`
}

type PromoResult struct {
	Status  PromoStatus `json:"status"`
	Message string      `json:"message"`
}

// NormalizeCode trims and upper-cases user input.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ComputeDiscount prices promo against subtotal. A percent takes precedence
// over a flat value. The result is rounded to cents and never exceeds subtotal.
func ComputeDiscount(p clients.Promocode, subtotal decimal.Decimal) decimal.Decimal {
	discount := decimal.Zero
	switch {
	case p.Percent != nil && *p.Percent > 0:
		discount = subtotal.Mul(decimal.NewFromInt(int64(*p.Percent))).Div(decimal.NewFromInt(100)).Round(2)
	case p.Value != nil:
		discount = *p.Value
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// evaluatePromo decides whether promo applies to subtotal.
func evaluatePromo(p clients.Promocode, subtotal decimal.Decimal) (*PromoApplication, PromoResult) {
	if !p.IsActive {
		return nil, PromoResult{Status: PromoNotFound, Message: "promo code not found or inactive"}
	}
	if p.MinOrderCost != nil && p.MinOrderCost.IsPositive() && subtotal.LessThan(*p.MinOrderCost) {
		return nil, PromoResult{
			Status:  PromoBelowMinimum,
			Message: fmt.Sprintf("promo code is valid, but the minimum order amount (%s) is not reached", p.MinOrderCost.StringFixed(2)),
		}
	}
	return &PromoApplication{Name: p.PromocodeName, Discount: ComputeDiscount(p, subtotal)},
		PromoResult{Status: PromoApplied, Message: "promo code applied"}
}
