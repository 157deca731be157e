package ordering

import (
	"time"

	"github.com/google/uuid"
)

// maxLineQuantity bounds the number of placeholder units one line can spawn
const maxLineQuantity = 10000

// Variant is the sellable variant as priced at the moment it is added to a cart
type Variant struct {
	ID         uuid.UUID
	SKU        string
	PriceCents int64
}

// LineItem is one variant on an order. The price is captured when the
// variant is first added and never re-read.
type LineItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	VariantID  uuid.UUID
	SKU        string
	Quantity   int
	PriceCents int64
	UnitIDs    []uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func newLineItem(orderID uuid.UUID, v Variant, now time.Time) *LineItem {
	return &LineItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		VariantID:  v.ID,
		SKU:        v.SKU,
		PriceCents: v.PriceCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AmountCents returns quantity * captured price
func (li *LineItem) AmountCents() int64 {
	return int64(li.Quantity) * li.PriceCents
}
