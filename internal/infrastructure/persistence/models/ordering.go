package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
)

// OrderModel is the persistence model for the Order aggregate root.
// Children are stored in their own tables and loaded with Preload.
type OrderModel struct {
	AggregateModel
	Number            string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	StoreID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Email             string              `gorm:"type:varchar(255)"`
	Currency          string              `gorm:"type:varchar(3);not null"`
	State             ordering.OrderState `gorm:"type:varchar(20);not null;index"`
	ShipAddress       AddressColumns      `gorm:"embedded;embeddedPrefix:ship_"`
	BillAddress       AddressColumns      `gorm:"embedded;embeddedPrefix:bill_"`
	ShippingMethodID  *uuid.UUID          `gorm:"type:uuid"`
	ShippingCostCents int64               `gorm:"not null;default:0"`
	ItemTotal         int64               `gorm:"not null;default:0"`
	ShipmentTotal     int64               `gorm:"not null;default:0"`
	AdjustmentTotal   int64               `gorm:"not null;default:0"`
	Total             int64               `gorm:"not null;default:0"`
	CompletedAt       *time.Time
	CanceledAt        *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
	// Associations
	LineItems   []LineItemModel         `gorm:"foreignKey:OrderID;references:ID"`
	Units       []InventoryUnitModel    `gorm:"foreignKey:OrderID;references:ID"`
	Shipments   []ShipmentModel         `gorm:"foreignKey:OrderID;references:ID"`
	Payments    []PaymentModel          `gorm:"foreignKey:OrderID;references:ID"`
	Adjustments []OrderAdjustmentModel  `gorm:"foreignKey:OrderID;references:ID"`
	History     []OrderStateChangeModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
// Line item and shipment unit lists are rebuilt from the unit arena in position order.
func (m *OrderModel) ToDomain() *ordering.Order {
	o := &ordering.Order{
		Number:            m.Number,
		StoreID:           m.StoreID,
		Email:             m.Email,
		Currency:          m.Currency,
		State:             m.State,
		ShipAddress:       m.ShipAddress.ToDomain(),
		BillAddress:       m.BillAddress.ToDomain(),
		ShippingMethodID:  m.ShippingMethodID,
		ShippingCostCents: m.ShippingCostCents,
		ItemTotal:         m.ItemTotal,
		ShipmentTotal:     m.ShipmentTotal,
		AdjustmentTotal:   m.AdjustmentTotal,
		Total:             m.Total,
		CompletedAt:       m.CompletedAt,
		CanceledAt:        m.CanceledAt,
		CancelReason:      m.CancelReason,
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)

	byLine := make(map[uuid.UUID][]uuid.UUID)
	byShipment := make(map[uuid.UUID][]uuid.UUID)
	o.Units = make([]*ordering.InventoryUnit, 0, len(m.Units))
	for i := range m.Units {
		u := m.Units[i].ToDomain()
		o.Units = append(o.Units, u)
		if u.IsLive() {
			byLine[u.LineItemID] = append(byLine[u.LineItemID], u.ID)
		}
		if u.ShipmentID != nil {
			byShipment[*u.ShipmentID] = append(byShipment[*u.ShipmentID], u.ID)
		}
	}

	o.LineItems = make([]*ordering.LineItem, 0, len(m.LineItems))
	for i := range m.LineItems {
		li := m.LineItems[i].ToDomain()
		li.UnitIDs = byLine[li.ID]
		o.LineItems = append(o.LineItems, li)
	}

	o.Shipments = make([]*ordering.Shipment, 0, len(m.Shipments))
	for i := range m.Shipments {
		s := m.Shipments[i].ToDomain()
		s.UnitIDs = byShipment[s.ID]
		o.Shipments = append(o.Shipments, s)
	}

	o.Payments = make([]*ordering.Payment, 0, len(m.Payments))
	for i := range m.Payments {
		o.Payments = append(o.Payments, m.Payments[i].ToDomain())
	}
	o.Adjustments = make([]ordering.Adjustment, 0, len(m.Adjustments))
	for _, a := range m.Adjustments {
		o.Adjustments = append(o.Adjustments, ordering.Adjustment{Label: a.Label, AmountCents: a.AmountCents, Source: a.Source})
	}
	o.History = make([]ordering.StateChange, 0, len(m.History))
	for _, h := range m.History {
		o.History = append(o.History, ordering.StateChange{FromState: h.FromState, ToState: h.ToState, Note: h.Note, At: h.At})
	}
	return o
}

// FromDomain populates the persistence model from a domain Order, children included
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.FromDomainAggregateRoot(&o.BaseAggregateRoot)
	m.Number = o.Number
	m.StoreID = o.StoreID
	m.Email = o.Email
	m.Currency = o.Currency
	m.State = o.State
	m.ShipAddress.FromDomain(o.ShipAddress)
	m.BillAddress.FromDomain(o.BillAddress)
	m.ShippingMethodID = o.ShippingMethodID
	m.ShippingCostCents = o.ShippingCostCents
	m.ItemTotal = o.ItemTotal
	m.ShipmentTotal = o.ShipmentTotal
	m.AdjustmentTotal = o.AdjustmentTotal
	m.Total = o.Total
	m.CompletedAt = o.CompletedAt
	m.CanceledAt = o.CanceledAt
	m.CancelReason = o.CancelReason

	m.LineItems = make([]LineItemModel, 0, len(o.LineItems))
	for i, li := range o.LineItems {
		m.LineItems = append(m.LineItems, LineItemModelFromDomain(li, i))
	}
	m.Units = make([]InventoryUnitModel, 0, len(o.Units))
	for i, u := range o.Units {
		m.Units = append(m.Units, InventoryUnitModelFromDomain(u, i))
	}
	m.Shipments = make([]ShipmentModel, 0, len(o.Shipments))
	for _, s := range o.Shipments {
		m.Shipments = append(m.Shipments, ShipmentModelFromDomain(s))
	}
	m.Payments = make([]PaymentModel, 0, len(o.Payments))
	for _, p := range o.Payments {
		m.Payments = append(m.Payments, PaymentModelFromDomain(o.ID, p))
	}
	m.Adjustments = make([]OrderAdjustmentModel, 0, len(o.Adjustments))
	for i, a := range o.Adjustments {
		m.Adjustments = append(m.Adjustments, OrderAdjustmentModel{
			OrderID:     o.ID,
			Position:    i,
			Label:       a.Label,
			AmountCents: a.AmountCents,
			Source:      a.Source,
		})
	}
	m.History = make([]OrderStateChangeModel, 0, len(o.History))
	for i, h := range o.History {
		m.History = append(m.History, OrderStateChangeModel{
			OrderID:   o.ID,
			Sequence:  i,
			FromState: h.FromState,
			ToState:   h.ToState,
			Note:      h.Note,
			At:        h.At,
		})
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// LineItemModel is the persistence model for a line item
type LineItemModel struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null;default:0"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null"`
	SKU        string    `gorm:"column:sku;type:varchar(100)"`
	Quantity   int       `gorm:"not null"`
	PriceCents int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() *ordering.LineItem {
	return &ordering.LineItem{
		ID:         m.ID,
		OrderID:    m.OrderID,
		VariantID:  m.VariantID,
		SKU:        m.SKU,
		Quantity:   m.Quantity,
		PriceCents: m.PriceCents,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// LineItemModelFromDomain creates a persistence model for a line item at a position
func LineItemModelFromDomain(li *ordering.LineItem, position int) LineItemModel {
	return LineItemModel{
		BaseModel:  BaseModel{ID: li.ID, CreatedAt: li.CreatedAt, UpdatedAt: li.UpdatedAt},
		OrderID:    li.OrderID,
		Position:   position,
		VariantID:  li.VariantID,
		SKU:        li.SKU,
		Quantity:   li.Quantity,
		PriceCents: li.PriceCents,
	}
}

// InventoryUnitModel is the persistence model for one physical item
type InventoryUnitModel struct {
	BaseModel
	OrderID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	Position        int                `gorm:"not null;default:0"`
	LineItemID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	VariantID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	ShipmentID      *uuid.UUID         `gorm:"type:uuid;index"`
	StockItemID     *uuid.UUID         `gorm:"type:uuid;index"`
	StockLocationID *uuid.UUID         `gorm:"type:uuid"`
	State           ordering.UnitState `gorm:"type:varchar(20);not null;index"`
	Pending         bool               `gorm:"not null;default:true"`
	SerialNumber    string             `gorm:"type:varchar(100)"`
	LotNumber       string             `gorm:"type:varchar(100)"`
	DeletedAt       *time.Time         `gorm:"index"`
}

// TableName returns the table name for GORM
func (InventoryUnitModel) TableName() string {
	return "inventory_units"
}

// ToDomain converts the persistence model to a domain InventoryUnit
func (m *InventoryUnitModel) ToDomain() *ordering.InventoryUnit {
	return &ordering.InventoryUnit{
		BaseEntity:      m.BaseModel.ToDomain(),
		SoftDelete:      shared.SoftDelete{DeletedAt: m.DeletedAt},
		OrderID:         m.OrderID,
		LineItemID:      m.LineItemID,
		VariantID:       m.VariantID,
		ShipmentID:      m.ShipmentID,
		StockItemID:     m.StockItemID,
		StockLocationID: m.StockLocationID,
		State:           m.State,
		Pending:         m.Pending,
		SerialNumber:    m.SerialNumber,
		LotNumber:       m.LotNumber,
	}
}

// InventoryUnitModelFromDomain creates a persistence model for a unit at its arena position
func InventoryUnitModelFromDomain(u *ordering.InventoryUnit, position int) InventoryUnitModel {
	m := InventoryUnitModel{
		OrderID:         u.OrderID,
		Position:        position,
		LineItemID:      u.LineItemID,
		VariantID:       u.VariantID,
		ShipmentID:      u.ShipmentID,
		StockItemID:     u.StockItemID,
		StockLocationID: u.StockLocationID,
		State:           u.State,
		Pending:         u.Pending,
		SerialNumber:    u.SerialNumber,
		LotNumber:       u.LotNumber,
		DeletedAt:       u.DeletedAt,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// ShipmentModel is the persistence model for a shipment
type ShipmentModel struct {
	BaseModel
	OrderID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	Number          string                 `gorm:"type:varchar(32);not null;uniqueIndex"`
	StockLocationID uuid.UUID              `gorm:"type:uuid;not null;index"`
	State           ordering.ShipmentState `gorm:"type:varchar(20);not null;index"`
	CostCents       int64                  `gorm:"not null;default:0"`
	TrackingNumber  string                 `gorm:"type:varchar(100)"`
	ReadyAt         *time.Time
	PickedAt        *time.Time
	PackedAt        *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CanceledAt      *time.Time
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *ordering.Shipment {
	return &ordering.Shipment{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderID:         m.OrderID,
		Number:          m.Number,
		StockLocationID: m.StockLocationID,
		State:           m.State,
		CostCents:       m.CostCents,
		TrackingNumber:  m.TrackingNumber,
		ReadyAt:         m.ReadyAt,
		PickedAt:        m.PickedAt,
		PackedAt:        m.PackedAt,
		ShippedAt:       m.ShippedAt,
		DeliveredAt:     m.DeliveredAt,
		CanceledAt:      m.CanceledAt,
	}
}

// ShipmentModelFromDomain creates a persistence model for a shipment
func ShipmentModelFromDomain(s *ordering.Shipment) ShipmentModel {
	m := ShipmentModel{
		OrderID:         s.OrderID,
		Number:          s.Number,
		StockLocationID: s.StockLocationID,
		State:           s.State,
		CostCents:       s.CostCents,
		TrackingNumber:  s.TrackingNumber,
		ReadyAt:         s.ReadyAt,
		PickedAt:        s.PickedAt,
		PackedAt:        s.PackedAt,
		ShippedAt:       s.ShippedAt,
		DeliveredAt:     s.DeliveredAt,
		CanceledAt:      s.CanceledAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// PaymentModel is the persistence model for a payment signal
type PaymentModel struct {
	BaseModel
	OrderID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	AmountCents int64                 `gorm:"not null"`
	State       ordering.PaymentState `gorm:"type:varchar(20);not null"`
	Reference   string                `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *ordering.Payment {
	return &ordering.Payment{
		ID:          m.ID,
		AmountCents: m.AmountCents,
		State:       m.State,
		Reference:   m.Reference,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// PaymentModelFromDomain creates a persistence model for a payment
func PaymentModelFromDomain(orderID uuid.UUID, p *ordering.Payment) PaymentModel {
	return PaymentModel{
		BaseModel:   BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		OrderID:     orderID,
		AmountCents: p.AmountCents,
		State:       p.State,
		Reference:   p.Reference,
	}
}

// OrderAdjustmentModel is one folded adjustment. The whole list is replaced on save.
type OrderAdjustmentModel struct {
	OrderID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position    int       `gorm:"primaryKey"`
	Label       string    `gorm:"type:varchar(255)"`
	AmountCents int64     `gorm:"not null"`
	Source      string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (OrderAdjustmentModel) TableName() string {
	return "order_adjustments"
}

// OrderStateChangeModel is one append-only history row
type OrderStateChangeModel struct {
	OrderID   uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Sequence  int                 `gorm:"primaryKey"`
	FromState ordering.OrderState `gorm:"type:varchar(20);not null"`
	ToState   ordering.OrderState `gorm:"type:varchar(20);not null"`
	Note      string              `gorm:"type:varchar(500)"`
	At        time.Time           `gorm:"column:changed_at;not null"`
}

// TableName returns the table name for GORM
func (OrderStateChangeModel) TableName() string {
	return "order_state_changes"
}
