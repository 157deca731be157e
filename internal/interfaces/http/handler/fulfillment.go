package handler

import (
	"github.com/gin-gonic/gin"
	fulfillmentapp "github.com/resys/backend/internal/application/fulfillment"
)

// FulfillmentHandler exposes the fulfillment planner and order allocation
type FulfillmentHandler struct {
	BaseHandler
	fulfillmentService *fulfillmentapp.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(fulfillmentService *fulfillmentapp.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentService: fulfillmentService}
}

// Plan godoc
// @ID           planFulfillment
// @Summary      Proposes a fulfillment split for arbitrary quantities. Nothing is reserved
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        request body fulfillmentapp.PlanRequest true "Request body"
// @Success      200 {object} dto.Response{data=fulfillmentapp.PlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /fulfillment/plan [post]
func (h *FulfillmentHandler) Plan(c *gin.Context) {
	var req fulfillmentapp.PlanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	plan, err := h.fulfillmentService.Plan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// PlanOrder godoc
// @ID           planOrderFulfillment
// @Summary      Proposes a split for the units an order still waits for
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body fulfillmentapp.AllocateRequest false "Request body"
// @Success      200 {object} dto.Response{data=fulfillmentapp.PlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/fulfillment-plan [post]
func (h *FulfillmentHandler) PlanOrder(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := h.allocateRequest(c)
	if !ok {
		return
	}
	plan, err := h.fulfillmentService.PlanOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// Allocate godoc
// @ID           allocateOrder
// @Summary      Reserves stock for an order and creates its shipments
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body fulfillmentapp.AllocateRequest false "Request body"
// @Success      200 {object} dto.Response{data=fulfillmentapp.AllocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/allocate [post]
func (h *FulfillmentHandler) Allocate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	req, ok := h.allocateRequest(c)
	if !ok {
		return
	}
	allocation, err := h.fulfillmentService.AllocateOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocation)
}

// allocateRequest binds the optional strategy body
func (h *FulfillmentHandler) allocateRequest(c *gin.Context) (fulfillmentapp.AllocateRequest, bool) {
	var req fulfillmentapp.AllocateRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return req, false
	}
	return req, true
}
