package handler

import (
	"github.com/gin-gonic/gin"
	stockapp "github.com/resys/backend/internal/application/stock"
)

// StockLocationHandler handles stock location endpoints
type StockLocationHandler struct {
	BaseHandler
	locationService *stockapp.LocationService
}

// NewStockLocationHandler creates a new StockLocationHandler
func NewStockLocationHandler(locationService *stockapp.LocationService) *StockLocationHandler {
	return &StockLocationHandler{locationService: locationService}
}

// Create godoc
// @ID           createStockLocation
// @Summary      Registers a stock location
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        request body stockapp.CreateLocationRequest true "Request body"
// @Success      201 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations [post]
func (h *StockLocationHandler) Create(c *gin.Context) {
	var req stockapp.CreateLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	loc, err := h.locationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, loc)
}

// List godoc
// @ID           listStockLocations
// @Summary      Returns a page of stock locations
// @Tags         stock-locations
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]stockapp.LocationResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations [get]
func (h *StockLocationHandler) List(c *gin.Context) {
	var filter stockapp.LocationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.locationService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetByID godoc
// @ID           getStockLocation
// @Summary      Returns a stock location
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id} [get]
func (h *StockLocationHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.GetByID(c.Request.Context(), id))
}

// Activate godoc
// @ID           activateStockLocation
// @Summary      Makes a location eligible for fulfillment
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/activate [post]
func (h *StockLocationHandler) Activate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.Activate(c.Request.Context(), id))
}

// Deactivate godoc
// @ID           deactivateStockLocation
// @Summary      Takes a location out of fulfillment
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/deactivate [post]
func (h *StockLocationHandler) Deactivate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.Deactivate(c.Request.Context(), id))
}

// MarkDefault godoc
// @ID           markDefaultStockLocation
// @Summary      Makes a location the preferred source of its stores
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/default [post]
func (h *StockLocationHandler) MarkDefault(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.MarkDefault(c.Request.Context(), id))
}

// LinkStore godoc
// @ID           linkStoreToLocation
// @Summary      Lets a store fulfill from the location
// @Tags         stock-locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        request body stockapp.StoreLinkRequest true "Request body"
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/stores [post]
func (h *StockLocationHandler) LinkStore(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req stockapp.StoreLinkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.location(c)(h.locationService.LinkStore(c.Request.Context(), id, req.StoreID))
}

// UnlinkStore godoc
// @ID           unlinkStoreFromLocation
// @Summary      Removes a store from the location
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        store_id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/stores/{store_id} [delete]
func (h *StockLocationHandler) UnlinkStore(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	storeID, ok := h.uuidParam(c, "store_id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.UnlinkStore(c.Request.Context(), id, storeID))
}

// Delete godoc
// @ID           deleteStockLocation
// @Summary      Soft-deletes a location
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id} [delete]
func (h *StockLocationHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.locationService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore godoc
// @ID           restoreStockLocation
// @Summary      Brings back a soft-deleted location
// @Tags         stock-locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=stockapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/locations/{id}/restore [post]
func (h *StockLocationHandler) Restore(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	h.location(c)(h.locationService.Restore(c.Request.Context(), id))
}

func (h *StockLocationHandler) location(c *gin.Context) func(*stockapp.LocationResponse, error) {
	return func(resp *stockapp.LocationResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}
