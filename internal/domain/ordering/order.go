package ordering

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/currency"
)

// OrderState is a checkout step
type OrderState string

const (
	OrderStateCart     OrderState = "CART"
	OrderStateAddress  OrderState = "ADDRESS"
	OrderStateDelivery OrderState = "DELIVERY"
	OrderStatePayment  OrderState = "PAYMENT"
	OrderStateConfirm  OrderState = "CONFIRM"
	OrderStateComplete OrderState = "COMPLETE"
	OrderStateCanceled OrderState = "CANCELED"
)

// IsValid checks if the state is a valid OrderState
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateCart, OrderStateAddress, OrderStateDelivery, OrderStatePayment,
		OrderStateConfirm, OrderStateComplete, OrderStateCanceled:
		return true
	}
	return false
}

// IsTerminal returns true for COMPLETE and CANCELED
func (s OrderState) IsTerminal() bool {
	return s == OrderStateComplete || s == OrderStateCanceled
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Order is the aggregate root of checkout and fulfillment.
// It owns its line items, the inventory unit arena, shipments and payments.
// Shipments and line items reference units by id and resolve them through the order.
type Order struct {
	shared.BaseAggregateRoot
	Number            string
	StoreID           uuid.UUID
	Email             string
	Currency          string
	State             OrderState
	LineItems         []*LineItem
	Units             []*InventoryUnit
	Shipments         []*Shipment
	Payments          []*Payment
	Adjustments       []Adjustment
	ShipAddress       valueobject.Address
	BillAddress       valueobject.Address
	ShippingMethodID  *uuid.UUID
	ShippingCostCents int64
	ItemTotal         int64
	ShipmentTotal     int64
	AdjustmentTotal   int64
	Total             int64
	CompletedAt       *time.Time
	CanceledAt        *time.Time
	CancelReason      string
	History           []StateChange
}

// NewOrder starts a cart for a store. Email may be empty for guest carts.
func NewOrder(storeID uuid.UUID, email, currencyCode string, now time.Time) (*Order, error) {
	if storeID == uuid.Nil {
		return nil, ErrInvalidStore
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return nil, ErrInvalidCurrency.WithMessage("Currency %q is not an ISO 4217 code", currencyCode)
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            NewOrderNumber(now),
		StoreID:           storeID,
		Email:             email,
		Currency:          unit.String(),
		State:             OrderStateCart,
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// SetEmail changes the contact email before the order is finished
func (o *Order) SetEmail(email string) error {
	if o.State.IsTerminal() {
		return o.illegal("change email")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	o.Email = email
	o.touch(time.Now())
	return nil
}

// AddVariant adds quantity units of a variant, merging into an existing line.
// The first add captures the price.
func (o *Order) AddVariant(v Variant, quantity int, now time.Time) (*LineItem, error) {
	if o.State != OrderStateCart {
		return nil, o.illegal("add items")
	}
	if v.ID == uuid.Nil {
		return nil, ErrInvalidVariant
	}
	if v.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	li := o.lineItemByVariant(v.ID)
	existing := 0
	if li != nil {
		existing = li.Quantity
	}
	if existing+quantity > maxLineQuantity {
		return nil, ErrLineQuantityExceedsMax.WithMessage("Line item quantity cannot exceed %d", maxLineQuantity)
	}

	if li == nil {
		li = newLineItem(o.ID, v, now)
		o.LineItems = append(o.LineItems, li)
	}
	for range quantity {
		u := NewInventoryUnit(o.ID, li.ID, v.ID)
		o.Units = append(o.Units, u)
		li.UnitIDs = append(li.UnitIDs, u.ID)
	}
	li.Quantity += quantity
	li.UpdatedAt = now

	o.recalculateTotals()
	o.touch(now)
	return li, nil
}

// RemoveLineItem drops a line from the cart and tombstones its units
func (o *Order) RemoveLineItem(lineItemID uuid.UUID, now time.Time) error {
	if o.State != OrderStateCart {
		return o.illegal("remove items")
	}
	idx := slices.IndexFunc(o.LineItems, func(li *LineItem) bool { return li.ID == lineItemID })
	if idx < 0 {
		return ErrLineItemNotFound
	}

	for _, u := range o.lineUnits(o.LineItems[idx]) {
		u.Delete(now)
	}
	o.LineItems = slices.Delete(o.LineItems, idx, idx+1)
	o.recalculateTotals()
	o.touch(now)
	return nil
}

// SetAddresses sets the ship and bill addresses
func (o *Order) SetAddresses(ship, bill valueobject.Address) error {
	if o.State != OrderStateCart && o.State != OrderStateAddress {
		return o.illegal("set addresses")
	}
	if ship.IsEmpty() || bill.IsEmpty() {
		return ErrAddressMissing
	}
	o.ShipAddress = ship
	o.BillAddress = bill
	o.touch(time.Now())
	return nil
}

// HasAddresses reports whether both addresses are set
func (o *Order) HasAddresses() bool {
	return !o.ShipAddress.IsEmpty() && !o.BillAddress.IsEmpty()
}

// SetShippingMethod chooses a shipping method and its cost
func (o *Order) SetShippingMethod(methodID uuid.UUID, costCents int64) error {
	switch o.State {
	case OrderStateCart, OrderStateAddress, OrderStateDelivery:
	default:
		return o.illegal("set the shipping method")
	}
	if methodID == uuid.Nil {
		return ErrShippingMethodMissing
	}
	if costCents < 0 {
		return ErrInvalidShippingCost
	}
	o.ShippingMethodID = &methodID
	o.ShippingCostCents = costCents
	o.recalculateTotals()
	o.touch(time.Now())
	return nil
}

// ApplyAdjustments replaces the folded adjustment list
func (o *Order) ApplyAdjustments(adjs []Adjustment) error {
	if o.State.IsTerminal() {
		return o.illegal("apply adjustments")
	}
	o.Adjustments = slices.Clone(adjs)
	o.recalculateTotals()
	o.touch(time.Now())
	return nil
}

// RecordPayment records a payment signal from the payment collaborator
func (o *Order) RecordPayment(amountCents int64, state PaymentState, reference string, now time.Time) (*Payment, error) {
	if o.State == OrderStateCanceled {
		return nil, o.illegal("record payments")
	}
	if amountCents <= 0 {
		return nil, ErrInvalidPaymentAmount
	}
	if !state.IsValid() {
		return nil, ErrInvalidPaymentState.WithMessage("Unknown payment state %q", state)
	}

	p := &Payment{
		ID:          uuid.New(),
		AmountCents: amountCents,
		State:       state,
		Reference:   strings.TrimSpace(reference),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.Payments = append(o.Payments, p)
	o.record(o.State, o.State, "payment recorded: "+string(state), now)
	o.touch(now)
	return p, nil
}

// CapturePayment marks a pending payment as completed
func (o *Order) CapturePayment(paymentID uuid.UUID) error {
	return o.settlePayment(paymentID, PaymentStateCompleted)
}

// FailPayment marks a pending payment as failed
func (o *Order) FailPayment(paymentID uuid.UUID) error {
	return o.settlePayment(paymentID, PaymentStateFailed)
}

func (o *Order) settlePayment(paymentID uuid.UUID, to PaymentState) error {
	if o.State == OrderStateCanceled {
		return o.illegal("settle payments")
	}
	idx := slices.IndexFunc(o.Payments, func(p *Payment) bool { return p.ID == paymentID })
	if idx < 0 {
		return ErrPaymentNotFound
	}
	p := o.Payments[idx]
	if p.State != PaymentStatePending {
		return ErrInvalidPaymentState.WithMessage("Payment is %s, only pending payments can be settled", p.State)
	}
	now := time.Now()
	p.State = to
	p.UpdatedAt = now
	o.record(o.State, o.State, "payment "+strings.ToLower(string(to)), now)
	o.touch(now)
	return nil
}

// CapturedTotal sums completed payments
func (o *Order) CapturedTotal() int64 {
	var total int64
	for _, p := range o.Payments {
		if p.IsCaptured() {
			total += p.AmountCents
		}
	}
	return total
}

// Next advances checkout by one step
func (o *Order) Next(now time.Time) error {
	from := o.State
	var to OrderState

	switch o.State {
	case OrderStateCart:
		to = OrderStateAddress
	case OrderStateAddress:
		if !o.HasAddresses() {
			return ErrAddressMissing
		}
		to = OrderStateDelivery
	case OrderStateDelivery:
		if o.ShippingMethodID == nil {
			return ErrShippingMethodMissing
		}
		to = OrderStatePayment
	case OrderStatePayment:
		if err := o.checkPayment(); err != nil {
			return err
		}
		to = OrderStateConfirm
	case OrderStateConfirm:
		if !o.IsFullyAllocated() {
			return ErrIncompleteAllocation
		}
		if err := o.checkPayment(); err != nil {
			return err
		}
		return o.complete(now)
	default:
		return o.illegal("advance")
	}

	o.State = to
	o.record(from, to, "", now)
	o.touch(now)
	o.AddDomainEvent(NewOrderStateChangedEvent(o, from))
	return nil
}

func (o *Order) complete(now time.Time) error {
	from := o.State
	for _, u := range o.LiveUnits() {
		if u.State.IsAllocated() {
			u.Finalize()
		}
	}
	o.State = OrderStateComplete
	o.CompletedAt = &now
	o.record(from, o.State, "", now)
	o.touch(now)
	o.AddDomainEvent(NewOrderStateChangedEvent(o, from))
	o.AddDomainEvent(NewOrderCompletedEvent(o))
	return nil
}

func (o *Order) checkPayment() error {
	captured := o.CapturedTotal()
	if captured < o.Total {
		return ErrInsufficientPayment.WithMessage(
			"Captured payments of %d do not cover the order total of %d %s", captured, o.Total, o.Currency)
	}
	return nil
}

// IsFullyAllocated reports whether every live unit has a physical source
func (o *Order) IsFullyAllocated() bool {
	for _, u := range o.LiveUnits() {
		if !u.State.IsAllocated() {
			return false
		}
	}
	return true
}

// Cancel cancels the order, every shipment that has not shipped and every
// unit that has never shipped. Canceling a canceled order does nothing.
func (o *Order) Cancel(reason string, now time.Time) error {
	switch o.State {
	case OrderStateComplete:
		return ErrCannotCancelCompleted
	case OrderStateCanceled:
		return nil
	}

	for _, s := range o.Shipments {
		if s.State.HasShipped() || s.State == ShipmentStateCanceled {
			continue
		}
		if err := s.Cancel(o.ShipmentUnits(s.ID)); err != nil {
			return err
		}
	}
	for _, u := range o.LiveUnits() {
		if cancelable(u) {
			if err := u.Cancel(); err != nil {
				return err
			}
		}
	}

	from := o.State
	o.State = OrderStateCanceled
	o.CanceledAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.record(from, o.State, o.CancelReason, now)
	o.touch(now)
	o.AddDomainEvent(NewOrderCanceledEvent(o, from))
	return nil
}

// RequestedQuantities returns the live units still waiting for allocation,
// per variant. Closed orders request nothing.
func (o *Order) RequestedQuantities() map[uuid.UUID]int {
	req := make(map[uuid.UUID]int)
	if o.State.IsTerminal() {
		return req
	}
	for _, u := range o.LiveUnits() {
		if u.AwaitsAllocation() {
			req[u.VariantID]++
		}
	}
	return req
}

// LiveUnits returns the units that have not been tombstoned
func (o *Order) LiveUnits() []*InventoryUnit {
	units := make([]*InventoryUnit, 0, len(o.Units))
	for _, u := range o.Units {
		if u.IsLive() {
			units = append(units, u)
		}
	}
	return units
}

// Unit resolves a unit by id
func (o *Order) Unit(unitID uuid.UUID) (*InventoryUnit, error) {
	for _, u := range o.Units {
		if u.ID == unitID {
			return u, nil
		}
	}
	return nil, ErrUnitNotFound
}

// LineItem resolves a line item by id
func (o *Order) LineItem(lineItemID uuid.UUID) (*LineItem, error) {
	for _, li := range o.LineItems {
		if li.ID == lineItemID {
			return li, nil
		}
	}
	return nil, ErrLineItemNotFound
}

// Shipment resolves a shipment by id
func (o *Order) Shipment(shipmentID uuid.UUID) (*Shipment, error) {
	for _, s := range o.Shipments {
		if s.ID == shipmentID {
			return s, nil
		}
	}
	return nil, ErrShipmentNotFound
}

// ShipmentUnits resolves the units of a shipment
func (o *Order) ShipmentUnits(shipmentID uuid.UUID) []*InventoryUnit {
	s, err := o.Shipment(shipmentID)
	if err != nil {
		return nil
	}
	return o.resolveUnits(s.UnitIDs)
}

// PullEvents drains the pending events of the order, its shipments and its
// units, oldest first
func (o *Order) PullEvents() []shared.DomainEvent {
	recorders := make([]shared.EventRecorder, 0, 1+len(o.Shipments)+len(o.Units))
	recorders = append(recorders, o)
	for _, s := range o.Shipments {
		recorders = append(recorders, s)
	}
	for _, u := range o.Units {
		recorders = append(recorders, u)
	}
	events := shared.DrainEvents(recorders...)
	slices.SortStableFunc(events, func(a, b shared.DomainEvent) int {
		return a.OccurredAt().Compare(b.OccurredAt())
	})
	return events
}

func (o *Order) lineItemByVariant(variantID uuid.UUID) *LineItem {
	for _, li := range o.LineItems {
		if li.VariantID == variantID {
			return li
		}
	}
	return nil
}

func (o *Order) lineUnits(li *LineItem) []*InventoryUnit {
	return o.resolveUnits(li.UnitIDs)
}

func (o *Order) resolveUnits(ids []uuid.UUID) []*InventoryUnit {
	if len(ids) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]*InventoryUnit, len(o.Units))
	for _, u := range o.Units {
		index[u.ID] = u
	}
	units := make([]*InventoryUnit, 0, len(ids))
	for _, id := range ids {
		if u, ok := index[id]; ok {
			units = append(units, u)
		}
	}
	return units
}

func (o *Order) recalculateTotals() {
	var items int64
	for _, li := range o.LineItems {
		items += li.AmountCents()
	}
	o.ItemTotal = items
	o.ShipmentTotal = 0
	if o.ShippingMethodID != nil {
		o.ShipmentTotal = o.ShippingCostCents
	}
	o.AdjustmentTotal = sumAdjustments(o.Adjustments)
	o.Total = max(0, o.ItemTotal+o.ShipmentTotal+o.AdjustmentTotal)
}

func (o *Order) record(from, to OrderState, note string, now time.Time) {
	o.History = append(o.History, StateChange{FromState: from, ToState: to, Note: note, At: now})
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now
	o.IncrementVersion()
}

func (o *Order) illegal(action string) error {
	return ErrInvalidStateTransition.WithMessage("Cannot %s when order %s is in %s state", action, o.Number, o.State)
}

// cancelable reports whether an order cancellation cascades onto the unit.
// Shipped and returned units left the building; damaged and canceled ones
// are already final.
func cancelable(u *InventoryUnit) bool {
	switch u.State {
	case UnitStateShipped, UnitStateReturned, UnitStateDamaged, UnitStateCanceled:
		return false
	}
	return true
}
