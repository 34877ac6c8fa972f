package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Pricing holds the unit price and the volume discount step.
type Pricing struct {
	UnitPrice         decimal.Decimal
	DiscountThreshold int
	DiscountPercent   decimal.Decimal
}

// DefaultPricing applies a 5% discount from 5 tickets on.
func DefaultPricing(unitPrice decimal.Decimal) Pricing {
	return Pricing{
		UnitPrice:         unitPrice,
		DiscountThreshold: 5,
		DiscountPercent:   decimal.NewFromInt(5),
	}
}

// Summary is derived from the ticket count; it is never stored.
type Summary struct {
	TotalTickets    int             `json:"totalTickets"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
}

// Summarize prices count tickets. The discount is a step function rounded to cents.
func (p Pricing) Summarize(count int) Summary {
	subtotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(count)))
	percent := decimal.Zero
	discount := decimal.Zero
	if count >= p.DiscountThreshold {
		percent = p.DiscountPercent
		discount = subtotal.Mul(percent).Div(hundred).Round(2)
	}
	return Summary{
		TotalTickets:    count,
		UnitPrice:       p.UnitPrice,
		Subtotal:        subtotal,
		DiscountPercent: percent,
		Discount:        discount,
		Total:           subtotal.Sub(discount),
	}
}

// Quote compares a cart total with the funds available to pay it.
type Quote struct {
	Summary    Summary         `json:"summary"`
	Available  decimal.Decimal `json:"available"`
	Sufficient bool            `json:"sufficient"`
	Shortfall  decimal.Decimal `json:"shortfall"`
}

func NewQuote(s Summary, available decimal.Decimal) Quote {
	q := Quote{Summary: s, Available: available, Shortfall: decimal.Zero}
	if available.GreaterThanOrEqual(s.Total) {
		q.Sufficient = true
	} else {
		q.Shortfall = s.Total.Sub(available)
	}
	return q
}
