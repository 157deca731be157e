package stock

import "github.com/google/uuid"

// StockSummary is the sellable position of one variant across every
// location it can ship from
type StockSummary struct {
	VariantID      uuid.UUID
	TotalOnHand    int
	TotalReserved  int
	TotalAvailable int
	Backorderable  bool
	LocationCount  int
}

// IsBuyable reports whether an order for the variant could be placed now
func (s StockSummary) IsBuyable() bool {
	return s.Backorderable || s.TotalAvailable > 0
}

// Summarize folds the stock items of a variant into a summary. Only items at
// live, active locations that can ship count. Backorder promises count as
// reserved, so TotalAvailable goes negative once stock is oversold.
func Summarize(variantID uuid.UUID, items []*StockItem, locations map[uuid.UUID]*StockLocation) StockSummary {
	summary := StockSummary{VariantID: variantID}
	for _, item := range items {
		if item.VariantID != variantID {
			continue
		}
		loc, ok := locations[item.LocationID]
		if !ok || !loc.IsFulfillable() {
			continue
		}
		summary.LocationCount++
		summary.TotalOnHand += item.QuantityOnHand
		summary.TotalReserved += item.QuantityReserved + item.QuantityBackordered
		if item.Backorderable {
			summary.Backorderable = true
		}
	}
	summary.TotalAvailable = summary.TotalOnHand - summary.TotalReserved
	return summary
}
