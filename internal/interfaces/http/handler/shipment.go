package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/resys/backend/internal/application/ordering"
)

// ShipmentHandler handles shipment progress and per-unit actions
type ShipmentHandler struct {
	BaseHandler
	shipmentService *orderapp.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *orderapp.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// Pick godoc
// @ID           pickShipment
// @Summary      Marks a shipment as being picked
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/pick [post]
func (h *ShipmentHandler) Pick(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.shipment(c)(h.shipmentService.Pick(c.Request.Context(), id))
}

// Pack godoc
// @ID           packShipment
// @Summary      Marks a shipment as packed
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/pack [post]
func (h *ShipmentHandler) Pack(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.shipment(c)(h.shipmentService.Pack(c.Request.Context(), id))
}

// Ship godoc
// @ID           shipShipment
// @Summary      Hands a shipment to the carrier
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Param        request body orderapp.ShipRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/ship [post]
func (h *ShipmentHandler) Ship(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.ShipRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.shipment(c)(h.shipmentService.Ship(c.Request.Context(), id, req))
}

// Deliver godoc
// @ID           deliverShipment
// @Summary      Confirms delivery of a shipment
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/deliver [post]
func (h *ShipmentHandler) Deliver(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.shipment(c)(h.shipmentService.Deliver(c.Request.Context(), id))
}

// Cancel godoc
// @ID           cancelShipment
// @Summary      Cancels a shipment that has not left the building
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.ShipmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.shipment(c)(h.shipmentService.Cancel(c.Request.Context(), id))
}

// ReserveUnit godoc
// @ID           reserveUnit
// @Summary      Fills a backordered unit from stock that has since arrived
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        unit_id path string true "Inventory unit ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.UnitResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/units/{unit_id}/reserve [post]
func (h *ShipmentHandler) ReserveUnit(c *gin.Context) {
	orderID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}
	h.unit(c)(h.shipmentService.ReserveBackorderedUnit(c.Request.Context(), orderID, unitID))
}

// ReturnUnit godoc
// @ID           returnUnit
// @Summary      Takes back a shipped unit
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        unit_id path string true "Inventory unit ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.UnitResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/units/{unit_id}/return [post]
func (h *ShipmentHandler) ReturnUnit(c *gin.Context) {
	orderID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}
	h.unit(c)(h.shipmentService.ReturnUnit(c.Request.Context(), orderID, unitID))
}

// DamageUnit godoc
// @ID           damageUnit
// @Summary      Writes a unit off as damaged
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        unit_id path string true "Inventory unit ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.UnitResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/units/{unit_id}/damage [post]
func (h *ShipmentHandler) DamageUnit(c *gin.Context) {
	orderID, unitID, ok := h.unitParams(c)
	if !ok {
		return
	}
	h.unit(c)(h.shipmentService.MarkUnitDamaged(c.Request.Context(), orderID, unitID))
}

func (h *ShipmentHandler) unitParams(c *gin.Context) (orderID, unitID uuid.UUID, ok bool) {
	if orderID, ok = h.uuidParam(c, "id"); !ok {
		return
	}
	unitID, ok = h.uuidParam(c, "unit_id")
	return
}

func (h *ShipmentHandler) shipment(c *gin.Context) func(*orderapp.ShipmentResponse, error) {
	return func(resp *orderapp.ShipmentResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}

func (h *ShipmentHandler) unit(c *gin.Context) func(*orderapp.UnitResponse, error) {
	return func(resp *orderapp.UnitResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}
