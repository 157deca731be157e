package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stockapp "github.com/resys/backend/internal/application/stock"
)

// StockItemHandler handles stock level and movement endpoints
type StockItemHandler struct {
	BaseHandler
	stockItemService *stockapp.StockItemService
}

// NewStockItemHandler creates a new StockItemHandler
func NewStockItemHandler(stockItemService *stockapp.StockItemService) *StockItemHandler {
	return &StockItemHandler{stockItemService: stockItemService}
}

type variantQuery struct {
	VariantID string `form:"variant_id" binding:"required,uuid"`
}

// ListByVariant godoc
// @ID           listStockItemsByVariant
// @Summary      Returns the stock of a variant at every location
// @Tags         stock-items
// @Produce      json
// @Param        variant_id query string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]stockapp.StockItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items [get]
func (h *StockItemHandler) ListByVariant(c *gin.Context) {
	var q variantQuery
	if !h.bindQuery(c, &q) {
		return
	}
	items, err := h.stockItemService.ListByVariant(c.Request.Context(), uuid.MustParse(q.VariantID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ListByLocation godoc
// @ID           listStockItemsByLocation
// @Summary      Returns a page of the stock items held at a location
// @Tags         stock-items
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]stockapp.StockItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/items [get]
func (h *StockItemHandler) ListByLocation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q pageFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.stockItemService.ListByLocation(c.Request.Context(), id, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetByID godoc
// @ID           getStockItem
// @Summary      Returns a stock item
// @Tags         stock-items
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/{id} [get]
func (h *StockItemHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.item(c)(h.stockItemService.GetByID(c.Request.Context(), id))
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      Returns the ledger of a stock item, newest first
// @Tags         stock-items
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]stockapp.MovementResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/{id}/movements [get]
func (h *StockItemHandler) ListMovements(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q pageFilter
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.stockItemService.ListMovements(c.Request.Context(), id, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Receive godoc
// @ID           receiveStock
// @Summary      Books incoming stock
// @Tags         stock-items
// @Accept       json
// @Produce      json
// @Param        request body stockapp.ReceiveStockRequest true "Request body"
// @Success      201 {object} dto.Response{data=stockapp.StockItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/receive [post]
func (h *StockItemHandler) Receive(c *gin.Context) {
	var req stockapp.ReceiveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.stockItemService.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Adjust godoc
// @ID           adjustStock
// @Summary      Records a manual on-hand change
// @Tags         stock-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Param        request body stockapp.AdjustStockRequest true "Request body"
// @Success      200 {object} dto.Response{data=stockapp.StockItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/{id}/adjust [post]
func (h *StockItemHandler) Adjust(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req stockapp.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.item(c)(h.stockItemService.Adjust(c.Request.Context(), id, req))
}

// SetBackorderPolicy godoc
// @ID           setBackorderPolicy
// @Summary      Configures backorders of a stock item
// @Tags         stock-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Param        request body stockapp.BackorderPolicyRequest true "Request body"
// @Success      200 {object} dto.Response{data=stockapp.StockItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/{id}/backorder-policy [put]
func (h *StockItemHandler) SetBackorderPolicy(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req stockapp.BackorderPolicyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.item(c)(h.stockItemService.SetBackorderPolicy(c.Request.Context(), id, req))
}

// Transfer godoc
// @ID           transferStock
// @Summary      Moves on-hand stock between two locations
// @Tags         stock-items
// @Accept       json
// @Produce      json
// @Param        request body stockapp.TransferStockRequest true "Request body"
// @Success      200 {object} dto.Response{data=stockapp.TransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/transfer [post]
func (h *StockItemHandler) Transfer(c *gin.Context) {
	var req stockapp.TransferStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.stockItemService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfer)
}

// Reconcile godoc
// @ID           reconcileStockItem
// @Summary      Compares a stock item with its ledger
// @Tags         stock-items
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.ReconcileResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/items/{id}/reconcile [post]
func (h *StockItemHandler) Reconcile(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.stockItemService.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary godoc
// @ID           getStockSummary
// @Summary      Returns the sellable position of a variant across ship-from locations
// @Tags         stock-items
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/variants/{id}/summary [get]
func (h *StockItemHandler) Summary(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.stockItemService.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

func (h *StockItemHandler) item(c *gin.Context) func(*stockapp.StockItemResponse, error) {
	return func(resp *stockapp.StockItemResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}
