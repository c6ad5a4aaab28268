package checkout

import (
	"github.com/shopspring/decimal"

	"challenge-checkout/core/commerce"
)

// SummaryItem is one displayed order line
type SummaryItem struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderSummary is derived from the last cart snapshot. It holds the
// invariants subtotal = total price + total discount, total = total price,
// so total = subtotal - discount to the cent.
type OrderSummary struct {
	Items    []SummaryItem   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// DiscountPercent returns the discount as a whole percentage of the
// subtotal, rounded to the nearest integer. Zero when nothing is discounted.
func (s OrderSummary) DiscountPercent() int {
	if s.Subtotal.IsZero() || s.Discount.IsZero() {
		return 0
	}
	pct := s.Discount.Div(s.Subtotal).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// summarize computes the order summary from a cart snapshot. A nil
// snapshot yields an empty summary.
func summarize(cart *commerce.Cart) OrderSummary {
	summary := OrderSummary{
		Items:    []SummaryItem{},
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
	if cart == nil {
		return summary
	}

	for _, item := range cart.Items {
		summary.Items = append(summary.Items, SummaryItem{
			Key:   item.Key,
			Name:  item.Name,
			Price: item.Price,
		})
	}

	summary.Discount = cart.Totals.TotalDiscount
	summary.Total = cart.Totals.TotalPrice
	summary.Subtotal = cart.Totals.TotalPrice.Add(cart.Totals.TotalDiscount)
	summary.Currency = cart.Totals.CurrencyCode
	return summary
}
