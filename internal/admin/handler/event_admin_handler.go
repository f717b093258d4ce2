package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/service"
)

// EventAdminHandler serves /admin/events endpoints: drafting, lifecycle
// transitions, and settlement.
type EventAdminHandler struct {
	eventSvc      *service.EventService
	resolutionSvc *service.ResolutionService
}

// NewEventAdminHandler creates an EventAdminHandler.
func NewEventAdminHandler(eventSvc *service.EventService, resolutionSvc *service.ResolutionService) *EventAdminHandler {
	return &EventAdminHandler{eventSvc: eventSvc, resolutionSvc: resolutionSvc}
}

// Create godoc
// POST /admin/events
func (h *EventAdminHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	view, err := h.eventSvc.CreateEvent(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, view)
}

// List godoc
// GET /admin/events?page=1&limit=50
func (h *EventAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	views, total, err := h.eventSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondList(c, views, total, page, limit)
}

// Detail godoc
// GET /admin/events/:ref
func (h *EventAdminHandler) Detail(c *gin.Context) {
	view, err := h.eventSvc.GetView(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// AddOutcome godoc
// POST /admin/events/:ref/outcomes
// Only drafted events accept new outcomes; anything later returns 409.
func (h *EventAdminHandler) AddOutcome(c *gin.Context) {
	var in service.OutcomeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	outcome, err := h.eventSvc.AddOutcome(c.Request.Context(), c.Param("ref"), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, outcome)
}

// Open godoc
// POST /admin/events/:ref/open
func (h *EventAdminHandler) Open(c *gin.Context) {
	if err := h.eventSvc.Open(c.Request.Context(), c.Param("ref")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Pause godoc
// POST /admin/events/:ref/pause
func (h *EventAdminHandler) Pause(c *gin.Context) {
	if err := h.eventSvc.Pause(c.Request.Context(), c.Param("ref")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Close godoc
// POST /admin/events/:ref/close
func (h *EventAdminHandler) Close(c *gin.Context) {
	if err := h.eventSvc.Close(c.Request.Context(), c.Param("ref")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Resolve godoc
// POST /admin/events/:ref/resolve
// With dry_run the settlement is validated end to end and nothing commits;
// the response reports whether a real run would proceed.
func (h *EventAdminHandler) Resolve(c *gin.Context) {
	var req service.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	dryRun, err := h.resolutionSvc.Resolve(c.Request.Context(), c.Param("ref"), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if dryRun {
		respondSuccess(c, http.StatusOK, gin.H{"would_resolve": true})
		return
	}
	c.Status(http.StatusNoContent)
}
