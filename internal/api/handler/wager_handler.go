package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/api/middleware"
	"github.com/predyx/exchange/internal/service"
)

// WagerHandler owns wager placement and the trader's position views.
type WagerHandler struct {
	wagerSvc *service.WagerService
}

func NewWagerHandler(wagerSvc *service.WagerService) *WagerHandler {
	return &WagerHandler{wagerSvc: wagerSvc}
}

// PlaceWager handles POST /wagers. The request echoes the wager and loan
// figures from the quote the client saw; a mismatch means the pool moved
// and the client must re-quote, which surfaces as a 400. The quote's payout
// travels along as max_payout and turns a fill below it into a 409.
func (h *WagerHandler) PlaceWager(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	placed, err := h.wagerSvc.PlaceWager(c.Request.Context(), userID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, placed)
}

// GetEventPositions handles GET /wagers/events/:ref and returns the caller's
// positions on that event grouped by open and closed.
func (h *WagerHandler) GetEventPositions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	groups, err := h.wagerSvc.GetEventPositions(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, groups)
}

// GetDashboard handles GET /dashboard/wager-position-events. The optional
// ?status= filter accepts "active" (open and paused events) or "inactive"
// (closed and resolved); anything else returns every event the caller has
// ever wagered on.
func (h *WagerHandler) GetDashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)

	entries, err := h.wagerSvc.GetDashboard(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, entries)
}
