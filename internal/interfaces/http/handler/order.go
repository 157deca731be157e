package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/resys/backend/internal/application/ordering"
)

// OrderHandler handles the checkout endpoints of an order
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create godoc
// @ID           createOrder
// @Summary      Starts a cart
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateOrderRequest true "Request body"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      Returns a page of orders
// @Tags         orders
// @Produce      json
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        state query string false "Order state" Enums(CART, ADDRESS, DELIVERY, PAYMENT, CONFIRM, COMPLETE, CANCELED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetByID godoc
// @ID           getOrder
// @Summary      Returns an order with its units, shipments and payments
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByNumber godoc
// @ID           getOrderByNumber
// @Summary      Returns an order by its public number
// @Tags         orders
// @Produce      json
// @Param        number path string true "Order number"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/number/{number} [get]
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// AddItem godoc
// @ID           addOrderItem
// @Summary      Adds a variant to a cart
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.AddItem(c.Request.Context(), id, req))
}

// RemoveItem godoc
// @ID           removeOrderItem
// @Summary      Removes a line item from a cart
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        line_item_id path string true "Line item ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/items/{line_item_id} [delete]
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lineItemID, ok := h.uuidParam(c, "line_item_id")
	if !ok {
		return
	}
	h.respond(c)(h.orderService.RemoveItem(c.Request.Context(), id, lineItemID))
}

// SetEmail godoc
// @ID           setOrderEmail
// @Summary      Changes the contact email
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.SetEmailRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/email [put]
func (h *OrderHandler) SetEmail(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.SetEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.SetEmail(c.Request.Context(), id, req))
}

// SetAddresses godoc
// @ID           setOrderAddresses
// @Summary      Sets the shipping and billing addresses
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AddressesRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/addresses [put]
func (h *OrderHandler) SetAddresses(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.AddressesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.SetAddresses(c.Request.Context(), id, req))
}

// SetShippingMethod godoc
// @ID           setOrderShippingMethod
// @Summary      Selects the shipping method
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.ShippingMethodRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/shipping-method [put]
func (h *OrderHandler) SetShippingMethod(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.ShippingMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.SetShippingMethod(c.Request.Context(), id, req))
}

// ApplyAdjustments godoc
// @ID           applyOrderAdjustments
// @Summary      Replaces the adjustments of an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.AdjustmentsRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/adjustments [put]
func (h *OrderHandler) ApplyAdjustments(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.AdjustmentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.ApplyAdjustments(c.Request.Context(), id, req))
}

// RecordPayment godoc
// @ID           recordOrderPayment
// @Summary      Records a payment against an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.RecordPaymentRequest true "Request body"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/payments [post]
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// CapturePayment godoc
// @ID           captureOrderPayment
// @Summary      Completes a pending payment
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        payment_id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/payments/{payment_id}/capture [post]
func (h *OrderHandler) CapturePayment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.uuidParam(c, "payment_id")
	if !ok {
		return
	}
	h.respond(c)(h.orderService.CapturePayment(c.Request.Context(), id, paymentID))
}

// FailPayment godoc
// @ID           failOrderPayment
// @Summary      Marks a pending payment as failed
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        payment_id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/payments/{payment_id}/fail [post]
func (h *OrderHandler) FailPayment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.uuidParam(c, "payment_id")
	if !ok {
		return
	}
	h.respond(c)(h.orderService.FailPayment(c.Request.Context(), id, paymentID))
}

// Next godoc
// @ID           advanceOrder
// @Summary      Advances the checkout by one step
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/next [post]
func (h *OrderHandler) Next(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.orderService.Next(c.Request.Context(), id))
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancels an order. The body is optional
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.CancelOrderRequest false "Request body"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.orderService.Cancel(c.Request.Context(), id, req))
}

// respond writes the order returned by a mutation
func (h *OrderHandler) respond(c *gin.Context) func(*orderapp.OrderResponse, error) {
	return func(order *orderapp.OrderResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, order)
	}
}
