package stock

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// TransferStatus is the lifecycle state of a stock transfer
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "DRAFT"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusCanceled  TransferStatus = "CANCELED"
)

// IsValid checks if the status is known
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusDraft, TransferStatusInTransit, TransferStatusCompleted, TransferStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation
func (s TransferStatus) String() string {
	return string(s)
}

// TransferReferencePrefix starts every generated transfer reference
const TransferReferencePrefix = "TRF-"

// TransferItem is one variant line of a transfer
type TransferItem struct {
	VariantID uuid.UUID
	SKU       string
	Quantity  int
}

// StockTransfer moves stock of one or more variants from a source to a
// destination location. Shipping takes the stock out of the source, receiving
// books it in at the destination. Between the two the stock is in transit and
// counted nowhere but on the transfer.
type StockTransfer struct {
	shared.BaseAggregateRoot
	ReferenceNumber       string
	SourceLocationID      uuid.UUID
	DestinationLocationID uuid.UUID
	Status                TransferStatus
	Reason                string
	Items                 []TransferItem
	ShippedAt             *time.Time
	ReceivedAt            *time.Time
	CanceledAt            *time.Time
}

// NewStockTransfer creates a draft transfer between two different locations
func NewStockTransfer(sourceID, destinationID uuid.UUID, reason string) (*StockTransfer, error) {
	if sourceID == destinationID {
		return nil, ErrSameLocation
	}
	t := &StockTransfer{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		SourceLocationID:      sourceID,
		DestinationLocationID: destinationID,
		Status:                TransferStatusDraft,
		Reason:                strings.TrimSpace(reason),
	}
	t.ReferenceNumber = TransferReferencePrefix + strings.ToUpper(strings.ReplaceAll(t.ID.String(), "-", "")[:8])
	t.AddDomainEvent(NewStockTransferEvent(EventTypeStockTransferCreated, t))
	return t, nil
}

// AddItem adds quantity of a variant. A variant already on the transfer has
// its line increased.
func (t *StockTransfer) AddItem(variantID uuid.UUID, sku string, qty int) error {
	if t.Status != TransferStatusDraft {
		return t.stateError("add items to")
	}
	if qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if idx := t.itemIndex(variantID); idx >= 0 {
		t.Items[idx].Quantity += qty
	} else {
		t.Items = append(t.Items, TransferItem{VariantID: variantID, SKU: sku, Quantity: qty})
	}
	t.touch()
	return nil
}

// RemoveItem drops the line of a variant
func (t *StockTransfer) RemoveItem(variantID uuid.UUID) error {
	if t.Status != TransferStatusDraft {
		return t.stateError("remove items from")
	}
	idx := t.itemIndex(variantID)
	if idx < 0 {
		return ErrTransferItemNotFound
	}
	t.Items = slices.Delete(t.Items, idx, idx+1)
	t.touch()
	return nil
}

// Ship sends a draft transfer on its way
func (t *StockTransfer) Ship(now time.Time) error {
	if t.Status != TransferStatusDraft {
		return t.stateError("ship")
	}
	if len(t.Items) == 0 {
		return ErrEmptyTransfer
	}
	t.Status = TransferStatusInTransit
	t.ShippedAt = &now
	t.touch()
	t.AddDomainEvent(NewStockTransferEvent(EventTypeStockTransferShipped, t))
	return nil
}

// Receive completes a transfer in transit
func (t *StockTransfer) Receive(now time.Time) error {
	if t.Status != TransferStatusInTransit {
		return t.stateError("receive")
	}
	t.Status = TransferStatusCompleted
	t.ReceivedAt = &now
	t.touch()
	t.AddDomainEvent(NewStockTransferEvent(EventTypeStockTransferReceived, t))
	return nil
}

// Cancel stops a transfer that has not completed. It reports whether the
// transfer was in transit, in which case its stock has left the source.
func (t *StockTransfer) Cancel(now time.Time) (wasInTransit bool, err error) {
	switch t.Status {
	case TransferStatusCompleted:
		return false, t.stateError("cancel")
	case TransferStatusCanceled:
		return false, nil
	}
	wasInTransit = t.Status == TransferStatusInTransit
	t.Status = TransferStatusCanceled
	t.CanceledAt = &now
	t.touch()
	t.AddDomainEvent(NewStockTransferEvent(EventTypeStockTransferCanceled, t))
	return wasInTransit, nil
}

// TotalQuantity sums the quantity of every line
func (t *StockTransfer) TotalQuantity() int {
	total := 0
	for _, item := range t.Items {
		total += item.Quantity
	}
	return total
}

func (t *StockTransfer) itemIndex(variantID uuid.UUID) int {
	return slices.IndexFunc(t.Items, func(item TransferItem) bool { return item.VariantID == variantID })
}

func (t *StockTransfer) stateError(action string) error {
	return ErrInvalidTransferState.WithMessage("Cannot %s transfer %s in status %s", action, t.ReferenceNumber, t.Status)
}

func (t *StockTransfer) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}
