package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/resys/backend/internal/application/ordering"
)

// CatalogHandler maintains variant prices
type CatalogHandler struct {
	BaseHandler
	catalogService *orderapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *orderapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetVariant godoc
// @ID           getCatalogVariant
// @Summary      Returns the current price of a variant
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.VariantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/variants/{id} [get]
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	v, err := h.catalogService.GetVariant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// PutVariant godoc
// @ID           putCatalogVariant
// @Summary      Creates or reprices a variant
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Param        request body orderapp.PutVariantRequest true "Request body"
// @Success      200 {object} dto.Response{data=orderapp.VariantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/variants/{id} [put]
func (h *CatalogHandler) PutVariant(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.PutVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	v, err := h.catalogService.PutVariant(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}
