package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/service"
)

// EventHandler serves the public, read-only event surface.
type EventHandler struct {
	eventSvc *service.EventService
}

func NewEventHandler(eventSvc *service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// GetByRef handles GET /events/:ref where ref is an event UUID or code.
// Responses are served from the short-lived view cache, so a burst of
// traders polling the same event does not hammer the database.
func (h *EventHandler) GetByRef(c *gin.Context) {
	view, err := h.eventSvc.GetView(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// List handles GET /events with ?limit= and ?page= pagination.
func (h *EventHandler) List(c *gin.Context) {
	limit, offset, page := parsePagination(c)
	views, total, err := h.eventSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondList(c, views, total, page, limit)
}
