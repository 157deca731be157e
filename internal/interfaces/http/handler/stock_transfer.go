package handler

import (
	"github.com/gin-gonic/gin"
	stockapp "github.com/resys/backend/internal/application/stock"
)

// StockTransferHandler handles transfers between stock locations
type StockTransferHandler struct {
	BaseHandler
	transferService *stockapp.TransferService
}

// NewStockTransferHandler creates a new StockTransferHandler
func NewStockTransferHandler(transferService *stockapp.TransferService) *StockTransferHandler {
	return &StockTransferHandler{transferService: transferService}
}

// Create godoc
// @ID           createStockTransfer
// @Summary      Opens a draft transfer
// @Tags         stock-transfers
// @Accept       json
// @Produce      json
// @Param        request body stockapp.CreateStockTransferRequest true "Request body"
// @Success      201 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers [post]
func (h *StockTransferHandler) Create(c *gin.Context) {
	var req stockapp.CreateStockTransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := h.transferService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, transfer)
}

// List godoc
// @ID           listStockTransfers
// @Summary      Returns a page of transfers
// @Tags         stock-transfers
// @Produce      json
// @Param        status query string false "Transfer status" Enums(DRAFT, IN_TRANSIT, COMPLETED, CANCELED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]stockapp.StockTransferResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers [get]
func (h *StockTransferHandler) List(c *gin.Context) {
	var filter stockapp.TransferListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.transferService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetByID godoc
// @ID           getStockTransfer
// @Summary      Returns a transfer
// @Tags         stock-transfers
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id} [get]
func (h *StockTransferHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.transfer(c)(h.transferService.GetByID(c.Request.Context(), id))
}

// AddItem godoc
// @ID           addStockTransferItem
// @Summary      Adds a variant line to a draft transfer
// @Tags         stock-transfers
// @Accept       json
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Param        request body stockapp.TransferItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id}/items [post]
func (h *StockTransferHandler) AddItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req stockapp.TransferItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.transfer(c)(h.transferService.AddItem(c.Request.Context(), id, req))
}

// RemoveItem godoc
// @ID           removeStockTransferItem
// @Summary      Drops a variant line from a draft transfer
// @Tags         stock-transfers
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id}/items/{variant_id} [delete]
func (h *StockTransferHandler) RemoveItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "variant_id")
	if !ok {
		return
	}
	h.transfer(c)(h.transferService.RemoveItem(c.Request.Context(), id, variantID))
}

// Ship godoc
// @ID           shipStockTransfer
// @Summary      Takes the transfer's stock out of the source
// @Tags         stock-transfers
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id}/ship [post]
func (h *StockTransferHandler) Ship(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.transfer(c)(h.transferService.Ship(c.Request.Context(), id))
}

// Receive godoc
// @ID           receiveStockTransfer
// @Summary      Books the transfer's stock in at the destination
// @Tags         stock-transfers
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id}/receive [post]
func (h *StockTransferHandler) Receive(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.transfer(c)(h.transferService.Receive(c.Request.Context(), id))
}

// Cancel godoc
// @ID           cancelStockTransfer
// @Summary      Stops a transfer that has not completed
// @Tags         stock-transfers
// @Produce      json
// @Param        id path string true "Transfer ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.StockTransferResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/transfers/{id}/cancel [post]
func (h *StockTransferHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.transfer(c)(h.transferService.Cancel(c.Request.Context(), id))
}

func (h *StockTransferHandler) transfer(c *gin.Context) func(*stockapp.StockTransferResponse, error) {
	return func(resp *stockapp.StockTransferResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}
