package ordering

import "strings"

// Adjustment is a pre-computed monetary change, typically a promotion.
// Discounts are negative.
type Adjustment struct {
	Label       string
	AmountCents int64
	Source      string
}

// NewAdjustment creates an adjustment
func NewAdjustment(label string, amountCents int64, source string) Adjustment {
	return Adjustment{
		Label:       strings.TrimSpace(label),
		AmountCents: amountCents,
		Source:      strings.TrimSpace(source),
	}
}

func sumAdjustments(adjs []Adjustment) int64 {
	var total int64
	for _, a := range adjs {
		total += a.AmountCents
	}
	return total
}
