package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/resys/backend/internal/application/event"
)

// OutboxHandler lets operators inspect and requeue undeliverable events
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// ListDeadLetters godoc
// @ID           listDeadLetters
// @Summary      Returns a page of dead letter entries
// @Tags         outbox
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]event.OutboxEntryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/outbox/dead [get]
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var filter event.DeadLetterFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.outboxService.ListDeadLetters(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// GetEntry godoc
// @ID           getOutboxEntry
// @Summary      Returns a single outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=event.OutboxEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/outbox/{id} [get]
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.outboxService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryEntry godoc
// @ID           retryOutboxEntry
// @Summary      Requeues one dead letter entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=event.OutboxEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/outbox/{id}/retry [post]
func (h *OutboxHandler) RetryEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll godoc
// @ID           retryAllDeadLetters
// @Summary      Requeues every dead letter entry
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=object}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/outbox/dead/retry [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"requeued": count})
}

// Stats godoc
// @ID           getOutboxStats
// @Summary      Counts entries per status
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=event.OutboxStatsResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
