package billing

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

// DefaultTaxRate is the GST applied to every order (18%).
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Totals is everything derived from a cart. Every surface that shows money
// must take it from here.
type Totals struct {
	Subtotal  int64 `json:"subtotal" dynamodbav:"subtotal"`
	Tax       int64 `json:"tax" dynamodbav:"tax"`
	Total     int64 `json:"total" dynamodbav:"total"`
	ItemCount int   `json:"item_count" dynamodbav:"item_count"`
}

// Calculator derives totals with a fixed tax rate.
type Calculator struct {
	rate decimal.Decimal
}

func NewCalculator(rate decimal.Decimal) *Calculator {
	return &Calculator{rate: rate}
}

// Rate returns the configured tax rate.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Totals computes subtotal, tax and total for items. Tax is rounded half-up to
// a whole rupee (decimal.Round rounds half away from zero and amounts are
// never negative).
func (c *Calculator) Totals(items []orders.LineItem) Totals {
	var t Totals
	for _, l := range items {
		t.Subtotal += l.Amount()
		t.ItemCount += l.Quantity
	}
	t.Tax = decimal.NewFromInt(t.Subtotal).Mul(c.rate).Round(0).IntPart()
	t.Total = t.Subtotal + t.Tax
	return t
}

// SplitTax splits tax into CGST and SGST, each round(tax/2). For odd tax the
// halves add up to tax+1; bills show the halves exactly as computed.
func SplitTax(tax int64) (cgst, sgst int64) {
	half := decimal.NewFromInt(tax).Div(decimal.NewFromInt(2)).Round(0).IntPart()
	return half, half
}

var defaultCalculator = NewCalculator(DefaultTaxRate)

// Calculate uses DefaultTaxRate.
func Calculate(items []orders.LineItem) Totals {
	return defaultCalculator.Totals(items)
}
