package router

import (
	"github.com/resys/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the fulfillment API
type Handlers struct {
	Orders      *handler.OrderHandler
	Shipments   *handler.ShipmentHandler
	Fulfillment *handler.FulfillmentHandler
	Locations   *handler.StockLocationHandler
	StockItems  *handler.StockItemHandler
	Transfers   *handler.StockTransferHandler
	Outbox      *handler.OutboxHandler
	System      *handler.SystemHandler
	Catalog     *handler.CatalogHandler
}

// OrderRoutes covers checkout, allocation and per-unit actions of an order
func OrderRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.POST("", h.Orders.Create)
	g.GET("", h.Orders.List)
	g.GET("/number/:number", h.Orders.GetByNumber)
	g.GET("/:id", h.Orders.GetByID)
	g.POST("/:id/items", h.Orders.AddItem)
	g.DELETE("/:id/items/:line_item_id", h.Orders.RemoveItem)
	g.PUT("/:id/email", h.Orders.SetEmail)
	g.PUT("/:id/addresses", h.Orders.SetAddresses)
	g.PUT("/:id/shipping-method", h.Orders.SetShippingMethod)
	g.PUT("/:id/adjustments", h.Orders.ApplyAdjustments)
	g.POST("/:id/payments", h.Orders.RecordPayment)
	g.POST("/:id/payments/:payment_id/capture", h.Orders.CapturePayment)
	g.POST("/:id/payments/:payment_id/fail", h.Orders.FailPayment)
	g.POST("/:id/next", h.Orders.Next)
	g.POST("/:id/cancel", h.Orders.Cancel)

	g.POST("/:id/fulfillment-plan", h.Fulfillment.PlanOrder)
	g.POST("/:id/allocate", h.Fulfillment.Allocate)

	g.POST("/:id/units/:unit_id/reserve", h.Shipments.ReserveUnit)
	g.POST("/:id/units/:unit_id/return", h.Shipments.ReturnUnit)
	g.POST("/:id/units/:unit_id/damage", h.Shipments.DamageUnit)
	return g
}

// ShipmentRoutes covers shipment progress
func ShipmentRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("shipments", "/shipments")
	g.POST("/:id/pick", h.Shipments.Pick)
	g.POST("/:id/pack", h.Shipments.Pack)
	g.POST("/:id/ship", h.Shipments.Ship)
	g.POST("/:id/deliver", h.Shipments.Deliver)
	g.POST("/:id/cancel", h.Shipments.Cancel)
	return g
}

// FulfillmentRoutes exposes the planner for arbitrary quantities
func FulfillmentRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("fulfillment", "/fulfillment")
	g.POST("/plan", h.Fulfillment.Plan)
	return g
}

// StockRoutes covers locations, stock items, the movement ledger and transfers
func StockRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("stock", "/stock")

	locations := g.Group("locations", "/locations")
	locations.POST("", h.Locations.Create)
	locations.GET("", h.Locations.List)
	locations.GET("/:id", h.Locations.GetByID)
	locations.DELETE("/:id", h.Locations.Delete)
	locations.POST("/:id/restore", h.Locations.Restore)
	locations.POST("/:id/activate", h.Locations.Activate)
	locations.POST("/:id/deactivate", h.Locations.Deactivate)
	locations.POST("/:id/default", h.Locations.MarkDefault)
	locations.POST("/:id/stores", h.Locations.LinkStore)
	locations.DELETE("/:id/stores/:store_id", h.Locations.UnlinkStore)
	locations.GET("/:id/items", h.StockItems.ListByLocation)

	items := g.Group("items", "/items")
	items.GET("", h.StockItems.ListByVariant)
	items.POST("/receive", h.StockItems.Receive)
	items.POST("/transfer", h.StockItems.Transfer)
	items.GET("/:id", h.StockItems.GetByID)
	items.GET("/:id/movements", h.StockItems.ListMovements)
	items.POST("/:id/adjust", h.StockItems.Adjust)
	items.PUT("/:id/backorder-policy", h.StockItems.SetBackorderPolicy)
	items.POST("/:id/reconcile", h.StockItems.Reconcile)

	g.GET("/variants/:id/summary", h.StockItems.Summary)

	transfers := g.Group("transfers", "/transfers")
	transfers.POST("", h.Transfers.Create)
	transfers.GET("", h.Transfers.List)
	transfers.GET("/:id", h.Transfers.GetByID)
	transfers.POST("/:id/items", h.Transfers.AddItem)
	transfers.DELETE("/:id/items/:variant_id", h.Transfers.RemoveItem)
	transfers.POST("/:id/ship", h.Transfers.Ship)
	transfers.POST("/:id/receive", h.Transfers.Receive)
	transfers.POST("/:id/cancel", h.Transfers.Cancel)
	return g
}

// CatalogRoutes covers variant prices read by carts
func CatalogRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("catalog", "/catalog")
	g.GET("/variants/:id", h.Catalog.GetVariant)
	g.PUT("/variants/:id", h.Catalog.PutVariant)
	return g
}

// SystemRoutes covers build info and the outbox dead letter queue
func SystemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.System.GetSystemInfo)
	g.GET("/ping", h.System.Ping)

	outbox := g.Group("outbox", "/outbox")
	outbox.GET("/stats", h.Outbox.Stats)
	outbox.GET("/dead", h.Outbox.ListDeadLetters)
	outbox.POST("/dead/retry", h.Outbox.RetryAll)
	outbox.GET("/:id", h.Outbox.GetEntry)
	outbox.POST("/:id/retry", h.Outbox.RetryEntry)
	return g
}

// RegisterAPI queues every domain group of the fulfillment API on r
func RegisterAPI(r *Router, h Handlers) *Router {
	return r.Register(OrderRoutes(h)).
		Register(ShipmentRoutes(h)).
		Register(FulfillmentRoutes(h)).
		Register(StockRoutes(h)).
		Register(CatalogRoutes(h)).
		Register(SystemRoutes(h))
}
